package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Shhrii/Sankshep-App/internal/identity"
)

const (
	fieldFullName = "full_name"
	fieldEmail    = "email"
	fieldPhone    = "phone"
	fieldPassword = "password"
	fieldConfirm  = "confirm"
	fieldPractice = "practice"
)

const msgPracticeRequired = "Please enter your place of practice."

// roleSlot is the focus position of the Doctor/Non-Doctor toggle.
const roleSlot = -1

type formField struct {
	key   string
	label string
	input textinput.Model
}

// authForm backs the Login and Signup screens.
type authForm struct {
	title    string
	fields   []formField
	withRole bool
	isDoctor bool
	focus    int
	err      string
}

func newField(key, label, placeholder string, secret bool) formField {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 128
	if secret {
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '•'
	}
	return formField{key: key, label: label, input: ti}
}

func newLoginForm() *authForm {
	f := &authForm{
		title: "› login",
		fields: []formField{
			newField(fieldEmail, "Email", "you@example.com", false),
			newField(fieldPassword, "Password", "password", true),
		},
	}
	f.focusFirst()
	return f
}

func newSignupForm() *authForm {
	f := &authForm{
		title: "› sign up",
		fields: []formField{
			newField(fieldFullName, "Full Name", "Your name", false),
			newField(fieldEmail, "Email", "you@example.com", false),
			newField(fieldPhone, "Phone", "Phone number", false),
			newField(fieldPassword, "Password", "At least 6 characters", true),
			newField(fieldConfirm, "Confirm Password", "Repeat password", true),
			newField(fieldPractice, "Place of Practice", "Clinic or hospital", false),
		},
		withRole: true,
	}
	f.focusFirst()
	return f
}

// slots lists the focusable positions in order. Place of Practice is only
// reachable for doctors.
func (f *authForm) slots() []int {
	var s []int
	for i, fld := range f.fields {
		if fld.key == fieldPractice && !f.isDoctor {
			continue
		}
		s = append(s, i)
		if fld.key == fieldConfirm && f.withRole {
			s = append(s, roleSlot)
		}
	}
	return s
}

func (f *authForm) focusedSlot() int {
	s := f.slots()
	if f.focus >= len(s) {
		f.focus = len(s) - 1
	}
	return s[f.focus]
}

func (f *authForm) onLastSlot() bool {
	return f.focus == len(f.slots())-1
}

func (f *authForm) focusFirst() {
	f.focus = 0
	f.applyFocus()
}

func (f *authForm) move(delta int) {
	n := len(f.slots())
	f.focus = (f.focus + delta + n) % n
	f.applyFocus()
}

func (f *authForm) applyFocus() {
	active := f.focusedSlot()
	for i := range f.fields {
		if i == active {
			f.fields[i].input.Focus()
		} else {
			f.fields[i].input.Blur()
		}
	}
}

func (f *authForm) toggleRole() {
	f.isDoctor = !f.isDoctor
	f.applyFocus()
}

func (f *authForm) value(key string) string {
	for _, fld := range f.fields {
		if fld.key == key {
			return fld.input.Value()
		}
	}
	return ""
}

func (f *authForm) setValue(key, v string) {
	for i := range f.fields {
		if f.fields[i].key == key {
			f.fields[i].input.SetValue(v)
		}
	}
}

func (f *authForm) reset() {
	for i := range f.fields {
		f.fields[i].input.Reset()
	}
	f.isDoctor = false
	f.err = ""
	f.focusFirst()
}

// update feeds a key to the focused input or the role toggle.
func (f *authForm) update(msg tea.KeyMsg) tea.Cmd {
	slot := f.focusedSlot()
	if slot == roleSlot {
		switch msg.String() {
		case " ", "left", "right", "h", "l":
			f.toggleRole()
		}
		return nil
	}
	var cmd tea.Cmd
	f.fields[slot].input, cmd = f.fields[slot].input.Update(msg)
	return cmd
}

// registration checks the fields only the form knows about and builds the
// sign-up request. Email and password rules are enforced by identity.
func (f *authForm) registration() (identity.Registration, string) {
	if f.value(fieldPassword) != f.value(fieldConfirm) {
		return identity.Registration{}, MsgPasswordMatch
	}
	if f.isDoctor && strings.TrimSpace(f.value(fieldPractice)) == "" {
		return identity.Registration{}, msgPracticeRequired
	}
	reg := identity.Registration{
		FullName: strings.TrimSpace(f.value(fieldFullName)),
		Email:    strings.TrimSpace(f.value(fieldEmail)),
		Phone:    strings.TrimSpace(f.value(fieldPhone)),
		Password: f.value(fieldPassword),
		IsDoctor: f.isDoctor,
	}
	if f.isDoctor {
		reg.Practice = strings.TrimSpace(f.value(fieldPractice))
	}
	return reg, ""
}

func (f *authForm) view(width int, hint string) string {
	inputWidth := min(width-8, 48)
	if inputWidth < 10 {
		inputWidth = 10
	}

	active := f.focusedSlot()
	rows := []string{TitleStyle.Render(f.title), ""}
	for _, slot := range f.slots() {
		if slot == roleSlot {
			rows = append(rows, f.roleView(active == roleSlot), "")
			continue
		}
		fld := f.fields[slot]
		fld.input.Width = inputWidth
		label := renderMuted(fld.label)
		if slot == active {
			label = HeaderStyle.Render(fld.label)
		}
		rows = append(rows, label, renderInputFrame(fld.input.View(), slot == active, inputWidth))
	}
	if f.err != "" {
		rows = append(rows, "", ErrorMessageStyle.Render(f.err))
	}
	rows = append(rows, "", renderHelp(hint))
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (f *authForm) roleView(focused bool) string {
	doctor, nonDoctor := "  Doctor  ", "  Non-Doctor  "
	on := ButtonStyle.Padding(0)
	off := lipgloss.NewStyle().Foreground(MutedColor)
	var left, right string
	if f.isDoctor {
		left, right = on.Render(doctor), off.Render(nonDoctor)
	} else {
		left, right = off.Render(doctor), on.Render(nonDoctor)
	}
	label := renderMuted("I am a")
	if focused {
		label = HeaderStyle.Render("I am a (space to switch)")
	}
	return lipgloss.JoinVertical(lipgloss.Left, label, left+" "+right)
}
