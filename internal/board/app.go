package board

import (
	tea "github.com/charmbracelet/bubbletea"
)

// App routes between the login, register and board screens. It starts on the
// board, which sends the user to login when there is no session.
type App struct {
	deps     Deps
	screen   screen
	login    credentialsForm
	register credentialsForm
	board    Board
	size     tea.WindowSizeMsg
}

func NewApp(d Deps) App {
	return App{
		deps:   d,
		screen: screenBoard,
		board:  NewBoard(d).Mount(),
	}
}

func (a App) Init() tea.Cmd {
	return a.board.Init()
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			a.board.Unmount()
			return a, tea.Quit
		}
	case tea.WindowSizeMsg:
		a.size = msg
		var cmd tea.Cmd
		a.board, cmd = a.board.Update(msg)
		return a, cmd
	case navigateMsg:
		return a.switchTo(msg)
	case sessionMsg, tasksLoadedMsg, taskSavedMsg, taskDeletedMsg, loggedOutMsg:
		var cmd tea.Cmd
		a.board, cmd = a.board.Update(msg)
		return a, cmd
	case authResultMsg:
		var cmd tea.Cmd
		if msg.kind == registerForm {
			a.register, cmd = a.register.Update(msg)
		} else {
			a.login, cmd = a.login.Update(msg)
		}
		return a, cmd
	}

	var cmd tea.Cmd
	switch a.screen {
	case screenLogin:
		a.login, cmd = a.login.Update(msg)
	case screenRegister:
		a.register, cmd = a.register.Update(msg)
	case screenBoard:
		a.board, cmd = a.board.Update(msg)
	}
	return a, cmd
}

// Close releases the board's session subscription. Call it after the program exits.
func (a App) Close() {
	a.board.Unmount()
}

func (a App) switchTo(msg navigateMsg) (App, tea.Cmd) {
	if a.screen == screenBoard && msg.to != screenBoard {
		a.board.Unmount()
	}
	a.screen = msg.to
	switch msg.to {
	case screenLogin:
		a.login = newCredentialsForm(loginForm, a.deps.Identity, msg.notice)
	case screenRegister:
		a.register = newCredentialsForm(registerForm, a.deps.Identity, msg.notice)
	case screenBoard:
		a.board.Unmount()
		a.board = NewBoard(a.deps).Mount()
		a.board, _ = a.board.Update(a.size)
		return a, a.board.Init()
	}
	return a, nil
}

func (a App) View() string {
	switch a.screen {
	case screenLogin:
		return a.login.View()
	case screenRegister:
		return a.register.View()
	default:
		return a.board.View()
	}
}
