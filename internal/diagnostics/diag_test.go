package diagnostics

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfWrapped(t *testing.T) {
	base := IO("open", "masks/r.png", os.ErrNotExist)
	wrapped := fmt.Errorf("load masks: %w", base)

	assert.Equal(t, IOFailure, KindOf(wrapped))
	assert.True(t, errors.Is(wrapped, os.ErrNotExist))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
}

func TestErrorMessage(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{IO("open", "a/r.png", os.ErrNotExist), "open a/r.png: file does not exist"},
		{Validationf("Red weight must be in [0, 1]"), "Red weight must be in [0, 1]"},
		{Skip("scale", errors.New("negative")), "scale: negative"},
		{&Error{Op: "mask", Path: "x"}, "mask x"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.err.Error())
	}
}

func TestFromError(t *testing.T) {
	d := FromError(Mismatch("masks/a", errors.New("sizes differ")))
	assert.Equal(t, Err, d.Severity)
	assert.Equal(t, "MASK.DIMENSIONS", d.Code)
	assert.Equal(t, "masks/a", d.Evidence["path"])

	d = FromError(Skip("scale", errors.New("negative")))
	assert.Equal(t, Warn, d.Severity)
	assert.True(t, IsSkippable(Skip("scale", errors.New("negative"))))

	d = FromError(errors.New("boom"))
	assert.Equal(t, "ERROR", d.Code)
}
