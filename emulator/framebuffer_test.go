package emulator

import "testing"

func TestFramebufferBounds(t *testing.T) {
	assert := func(v bool) {
		if !v {
			t.Error("assert failed")
		}
	}

	fb := NewFramebuffer(4, 4)
	fb.SetPixel(1, 2, 0x112233ff)
	assert(fb.Pixel(1, 2) == 0x112233ff)

	// out of bounds accesses never touch the buffer
	fb.SetPixel(-1, 0, 0xffffffff)
	fb.SetPixel(4, 0, 0xffffffff)
	fb.SetPixel(0, 4, 0xffffffff)
	assert(fb.Pixel(-1, 0) == 0)
	assert(fb.Pixel(4, 0) == 0)
	for i, v := range fb.Pixels {
		if i != 2*4+1 {
			assert(v == 0)
		}
	}
}

func TestFramebufferWriteRGBA(t *testing.T) {
	assert := func(v bool) {
		if !v {
			t.Error("assert failed")
		}
	}

	fb := NewFramebuffer(2, 1)
	fb.SetPixel(0, 0, 0x11223344)
	fb.SetPixel(1, 0, 0xaabbccdd)

	dst := make([]byte, 2*1*4)
	fb.WriteRGBA(dst)
	assert(dst[0] == 0x11 && dst[1] == 0x22 && dst[2] == 0x33 && dst[3] == 0x44)
	assert(dst[4] == 0xaa && dst[5] == 0xbb && dst[6] == 0xcc && dst[7] == 0xdd)
}

func TestCommandQueue(t *testing.T) {
	assert := func(v bool) {
		if !v {
			t.Error("assert failed")
		}
	}

	q := NewCommandQueue()
	assert(q.IsEmpty())

	q.Push(1)
	q.Push(2)
	q.Push(3)
	assert(q.Length() == 3)
	assert(q.Pop() == 1)
	assert(q.Pop() == 2)
	assert(q.Length() == 1)

	q.Clear()
	assert(q.IsEmpty())
}
