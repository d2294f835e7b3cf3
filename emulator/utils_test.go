package emulator

import (
	"testing"
)

func TestAdd32Overflow(t *testing.T) {
	assert := func(v bool) {
		if !v {
			t.Error("assert failed")
		}
	}

	v, err := add32Overflow(1, 2)
	assert(v == 3 && err == nil)

	_, err = add32Overflow(0x7fffffff, 1)
	assert(err != nil)

	_, err = add32Overflow(-0x80000000, -1)
	assert(err != nil)

	v, err = add32Overflow(-0x80000000, 0x7fffffff)
	assert(v == -1 && err == nil)
}

func TestSub32Overflow(t *testing.T) {
	assert := func(v bool) {
		if !v {
			t.Error("assert failed")
		}
	}

	v, err := sub32Overflow(5, 7)
	assert(v == -2 && err == nil)

	_, err = sub32Overflow(-0x80000000, 1)
	assert(err != nil)

	_, err = sub32Overflow(0x7fffffff, -1)
	assert(err != nil)
}

func TestAdd64Overflow(t *testing.T) {
	assert := func(v bool) {
		if !v {
			t.Error("assert failed")
		}
	}

	v, err := add64Overflow(1, 2)
	assert(v == 3 && err == nil)

	_, err = add64Overflow(0x7fffffffffffffff, 1)
	assert(err != nil)

	_, err = sub64Overflow(-0x8000000000000000, 1)
	assert(err != nil)
}

func TestMul64(t *testing.T) {
	assert := func(v bool) {
		if !v {
			t.Error("assert failed")
		}
	}

	hi, lo := mul64(-1, -1)
	assert(hi == 0 && lo == 1)

	hi, lo = mul64(-1, 2)
	assert(hi == 0xffffffffffffffff && lo == 0xfffffffffffffffe)

	hi, lo = mulu64(0x8000000000000000, 2)
	assert(hi == 1 && lo == 0)
}

func TestSignExtend32(t *testing.T) {
	assert := func(v bool) {
		if !v {
			t.Error("assert failed")
		}
	}

	assert(signExtend32(0x00000001) == 1)
	assert(signExtend32(0x80000000) == 0xffffffff80000000)
	assert(signExtend32(0xffffffff) == 0xffffffffffffffff)
}

func TestRegisterNames(t *testing.T) {
	assert := func(v bool) {
		if !v {
			t.Error("assert failed")
		}
	}

	assert(GetRegisterName(0) == "r0")
	assert(GetRegisterName(31) == "ra")
	assert(GetRegisterIndexByName("sp") == 29)
	assert(GetRegisterIndexByName("bogus") == 0)
}
