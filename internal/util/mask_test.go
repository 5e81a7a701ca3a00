package util

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMaskHex(t *testing.T) {
	require.Equal(t, "", MaskHex(""))
	require.Equal(t, "0x***", MaskHex("0xdead"))
	require.Equal(t, "0x1234…cdef", MaskHex("0x1234567890abcdef"))
	require.Equal(t, "0x1234…cdef", MaskHex("1234567890abcdef"))
}
