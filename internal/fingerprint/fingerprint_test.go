package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSum_KnownValue(t *testing.T) {
	// sha256("hello-netapp")
	got := Sum([]byte("hello-netapp"))
	want := "sha256:c9f7be5d18e7d6a6798f2261b6c193f008152f1ce8fc4e2fbdffe3cc67828037"
	assert.Equal(t, want, got)
}

func TestSum_Deterministic(t *testing.T) {
	a := Sum([]byte("payload"))
	b := Sum([]byte("payload"))
	c := Sum([]byte("payload2"))
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestEqual(t *testing.T) {
	fp := Sum([]byte("x"))
	assert.True(t, Equal(fp, Sum([]byte("x"))))
	assert.False(t, Equal(fp, Sum([]byte("y"))))
	assert.False(t, Equal("", ""))
	assert.False(t, Equal(fp, ""))
}

func TestValid(t *testing.T) {
	assert.True(t, Valid(Sum([]byte("x"))))
	assert.False(t, Valid("md5:abc"))
	assert.False(t, Valid("sha256:zz"))
	assert.False(t, Valid("sha256:"))
}
