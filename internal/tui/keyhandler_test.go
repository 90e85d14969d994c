package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Shhrii/Sankshep-App/internal/feed"
	"github.com/Shhrii/Sankshep-App/internal/nav"
)

func TestKeyHandler_UsesConfiguredBindings(t *testing.T) {
	id := newTestIdentity(t)
	h := newHarness(t, id, &stubSource{})
	assert.NotNil(t, h.app.keyHandler)
	assert.Equal(t, "r", h.app.keyHandler.keys.Refresh)
	assert.Equal(t, "esc", h.app.keyHandler.keys.Back)
}

func TestKeyHandler_RemappedKeys(t *testing.T) {
	h := signedInHarness(t, &stubSource{})
	h.untilFeed(feed.Ready)
	h.app.keyHandler.keys.Poll = "v"

	h.press("p")
	assert.Equal(t, nav.DoctorHome, h.app.current.Screen, "the default binding no longer applies")

	h.press("v")
	assert.Equal(t, nav.Poll, h.app.current.Screen)
}

func TestKeyHandler_FormKeysAreTyped(t *testing.T) {
	h := newHarness(t, newTestIdentity(t), &stubSource{})
	h.start()

	// Action bindings are plain letters; in a form they are text.
	h.typeText("rmp")
	assert.Equal(t, "rmp", h.app.login.value(fieldEmail))
	assert.Equal(t, nav.Login, h.app.current.Screen)
}

func TestKeyHandler_FormFocusCycles(t *testing.T) {
	h := newHarness(t, newTestIdentity(t), &stubSource{})
	h.start()
	h.press("ctrl+n")

	form := h.app.signup
	assert.Len(t, form.slots(), 6, "place of practice is hidden for non-doctors")

	h.press("shift+tab")
	assert.Equal(t, roleSlot, form.focusedSlot(), "focus wraps to the role toggle")

	h.press(" ")
	assert.True(t, form.isDoctor)
	assert.Len(t, form.slots(), 7)

	h.press("tab")
	assert.Equal(t, fieldPractice, form.fields[form.focusedSlot()].key)
	assert.True(t, form.fields[form.focusedSlot()].input.Focused())

	h.press("tab")
	assert.Equal(t, fieldFullName, form.fields[form.focusedSlot()].key)
}

func TestKeyHandler_SanitizeSearchInput(t *testing.T) {
	kh := &KeyHandler{}
	tests := []struct {
		in   string
		want string
	}{
		{in: "  vata  ", want: "vata"},
		{in: "vata\tpitta\nkapha", want: "vata pitta kapha"},
		{in: "a    b", want: "a b"},
		{in: "", want: ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, kh.sanitizeSearchInput(tt.in), "input %q", tt.in)
	}

	long := make([]byte, 400)
	for i := range long {
		long[i] = 'x'
	}
	assert.Len(t, kh.sanitizeSearchInput(string(long)), 256)
}

func TestKeyHandler_HelpPerScreen(t *testing.T) {
	h := newHarness(t, newTestIdentity(t), &stubSource{})
	h.start()

	assert.Contains(t, h.app.keyHandler.GetHelpForCurrentView(), "ctrl+n: sign up")

	h.press("ctrl+n")
	assert.Contains(t, h.app.keyHandler.GetHelpForCurrentView(), "esc: login")
}
