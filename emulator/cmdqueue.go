package emulator

// FIFO of 32 bit command words feeding the rasterizer. Transfers can
// outpace command processing, so the queue grows as needed instead of
// dropping words
type CommandQueue struct {
	words []uint32
	head  int
}

// Creates a new empty command queue
func NewCommandQueue() *CommandQueue {
	return &CommandQueue{}
}

// Returns true if the queue holds no words
func (q *CommandQueue) IsEmpty() bool {
	return q.head >= len(q.words)
}

// Returns the number of queued words
func (q *CommandQueue) Length() int {
	return len(q.words) - q.head
}

// Appends a word at the tail of the queue
func (q *CommandQueue) Push(word uint32) {
	q.words = append(q.words, word)
}

// Removes and returns the word at the head of the queue. Popping an
// empty queue is a bug in the caller
func (q *CommandQueue) Pop() uint32 {
	if q.IsEmpty() {
		panicFmt("pop from an empty command queue")
	}
	word := q.words[q.head]
	q.head++

	// reclaim the consumed prefix once it dominates the backing slice
	if q.head > 4096 && q.head*2 >= len(q.words) {
		q.words = append(q.words[:0], q.words[q.head:]...)
		q.head = 0
	}
	return word
}

// Removes all queued words
func (q *CommandQueue) Clear() {
	q.words = q.words[:0]
	q.head = 0
}
