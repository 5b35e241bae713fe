package board

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Isingizwe12/taskboard/internal/client"
)

type formKind int

const (
	loginForm formKind = iota
	registerForm
)

const (
	fieldEmail = iota
	fieldPassword
)

type authResultMsg struct {
	kind formKind
	user *client.User
	err  error
}

// credentialsForm backs both the login and the register screen.
type credentialsForm struct {
	kind       formKind
	identity   Identity
	inputs     []textinput.Model
	focus      int
	err        string
	notice     string
	submitting bool
}

func newCredentialsForm(kind formKind, identity Identity, notice string) credentialsForm {
	email := textinput.New()
	email.Placeholder = "Enter Your Email"
	email.CharLimit = 254
	email.Focus()

	password := textinput.New()
	password.Placeholder = "Enter Your Password"
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	return credentialsForm{
		kind:     kind,
		identity: identity,
		inputs:   []textinput.Model{email, password},
		notice:   notice,
	}
}

func (f credentialsForm) Update(msg tea.Msg) (credentialsForm, tea.Cmd) {
	switch msg := msg.(type) {
	case authResultMsg:
		if msg.kind != f.kind {
			return f, nil
		}
		f.submitting = false
		if msg.err != nil {
			f.err = msg.err.Error()
			return f, nil
		}
		if f.kind == registerForm {
			return f, navigate(screenLogin, "Account created. Please log in.")
		}
		return f, navigate(screenBoard, "")

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+r":
			if f.kind == loginForm {
				return f, navigate(screenRegister, "")
			}
		case "esc":
			if f.kind == registerForm {
				return f, navigate(screenLogin, "")
			}
		case "tab", "down":
			f.setFocus(f.focus + 1)
			return f, nil
		case "shift+tab", "up":
			f.setFocus(f.focus - 1)
			return f, nil
		case "enter":
			return f.submit()
		}
	}

	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return f, cmd
}

func (f *credentialsForm) setFocus(i int) {
	n := len(f.inputs)
	f.focus = (i%n + n) % n
	for j := range f.inputs {
		if j == f.focus {
			f.inputs[j].Focus()
		} else {
			f.inputs[j].Blur()
		}
	}
}

func (f credentialsForm) submit() (credentialsForm, tea.Cmd) {
	if f.submitting {
		return f, nil
	}
	email := strings.TrimSpace(f.inputs[fieldEmail].Value())
	password := f.inputs[fieldPassword].Value()
	if email == "" || password == "" {
		f.err = "Email and password are required"
		return f, nil
	}
	f.err, f.notice = "", ""
	f.submitting = true

	identity, kind := f.identity, f.kind
	return f, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		var (
			u   *client.User
			err error
		)
		if kind == registerForm {
			u, err = identity.Register(ctx, email, password)
		} else {
			u, err = identity.Login(ctx, email, password)
		}
		return authResultMsg{kind: kind, user: u, err: err}
	}
}

func (f credentialsForm) View() string {
	heading, action, alt := "Welcome Back", "Login", "No account? ctrl+r to register"
	if f.kind == registerForm {
		heading, action, alt = "Create an Account", "Register", "Already have an account? esc to login"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(" "+heading+" ") + "\n\n")
	for _, in := range f.inputs {
		b.WriteString(in.View() + "\n")
	}
	b.WriteString("\n")
	switch {
	case f.submitting:
		b.WriteString(mutedStyle.Render(action+"...") + "\n")
	case f.err != "":
		b.WriteString(errorStyle.Render(f.err) + "\n")
	case f.notice != "":
		b.WriteString(noticeStyle.Render(f.notice) + "\n")
	}
	b.WriteString(helpStyle.Render("enter: "+strings.ToLower(action)+" | tab: next field | "+alt+" | ctrl+c: quit"))
	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}
