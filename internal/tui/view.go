package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Shhrii/Sankshep-App/internal/feed"
	"github.com/Shhrii/Sankshep-App/internal/nav"
)

func (a *App) View() string {
	if a.width == 0 {
		return ""
	}

	var content string
	switch a.current.Screen {
	case nav.Splash:
		content = renderCentered(a.width, a.height-1, GetCompactBanner(""))
		return content
	case nav.AuthLoading:
		content = renderCentered(a.width, a.height-1, GetCompactBanner(a.spinner.View()+" Checking your session…"))
		return content
	case nav.Login:
		content = renderCentered(a.width, a.contentHeight(), a.login.view(a.width, "New to the app? Press "+signupKey+" to sign up"))
	case nav.Signup:
		content = renderCentered(a.width, a.contentHeight(), a.signup.view(a.width, "Already have an account? Press "+a.config.Keys.Bindings.Back+" to log in"))
	case nav.DoctorHome, nav.NonDoctorHome:
		content = a.homeView()
	case nav.Poll:
		content = renderDialog(a.width, a.contentHeight(), TitleStyle.Render("› poll"),
			[]string{
				"Help shape Sankshep: tell us which topics matter to your practice.",
				renderMuted(PollURL),
			},
			"Enter: open poll in browser • Esc: back")
	case nav.Source:
		content = a.sourceView()
	case nav.Logout:
		body := []string{"Are you sure you want to log out?"}
		if a.busy {
			body = append(body, a.spinner.View()+" "+MsgLoggingOut)
		}
		content = renderDialog(a.width, a.contentHeight(), ModalHighlightStyle.Render("Log out"), body, "Enter: log out • Esc: cancel")
	default:
		content = renderCentered(a.width, a.contentHeight(), renderMuted(string(a.current.Screen)))
	}

	if a.showHelp {
		content = a.helpView()
	}

	header := a.headerLine()
	body := ContentWrapper(a.width, a.contentHeight()).Render(content)
	return lipgloss.JoinVertical(lipgloss.Top, header, body, renderSeparator(a.width), a.statusBar())
}

func (a *App) headerLine() string {
	title := LogoStyle.Render(CompactLogo)
	var sub string
	switch a.current.Screen {
	case nav.DoctorHome:
		sub = "for doctors"
	case nav.NonDoctorHome:
		sub = "for everyone"
	}
	if a.topic != "" {
		sub += " • " + a.topic
	}
	if sub == "" {
		return title
	}
	return title + " " + renderMuted(sub)
}

func (a *App) homeView() string {
	if a.home == nil {
		return ""
	}
	vm := a.home.vm
	h := a.contentHeight()

	switch a.mode {
	case modeMenu:
		return a.menuList.View()
	case modeSearch:
		return a.searchView()
	case modeReader:
		return a.viewport.View()
	}

	switch vm.Status {
	case feed.Loading:
		msg := MsgLoadingPosts
		if vm.IsRefreshing {
			msg = MsgRefreshing
		}
		return renderCentered(a.width, h, a.spinner.View()+" "+msg)
	case feed.Failed:
		return renderDialog(a.width, h, ErrorMessageStyle.Render("✗ "+vm.Message), nil,
			fmt.Sprintf("%s: retry • %s: quit", a.config.Keys.Bindings.Retry, a.config.Keys.Bindings.Quit))
	}

	if len(a.postList.Items()) == 0 {
		msg := MsgNoPosts
		if a.topic != "" {
			msg = fmt.Sprintf("No posts about %s", strings.ToLower(a.topic))
		}
		return renderCentered(a.width, h, renderMuted(msg))
	}
	return a.postList.View()
}

func (a *App) searchView() string {
	inputBorderColor := MutedColor
	if a.searchInput.Focused() {
		inputBorderColor = AccentColor
	}
	input := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(inputBorderColor).
		Padding(0, 1).
		Width(a.searchInput.Width + 4).
		Render(a.searchInput.View())

	var results string
	switch {
	case len(a.searchList.Items()) > 0:
		results = a.searchList.View()
	case a.searchInput.Value() != "":
		results = renderMuted(MsgNoResults)
	}

	return lipgloss.JoinVertical(lipgloss.Top,
		renderHeader("› search "+a.home.category+" posts", "", a.width),
		"",
		input,
		"",
		results,
	)
}

func (a *App) sourceView() string {
	params := a.current.Params
	body := []string{
		ModalHighlightStyle.Render(params["title"]),
		SourceTagStyle.Render(params["tag"]),
		renderMuted(truncateMiddle(params["url"], max(a.width-8, 20))),
	}
	return renderDialog(a.width, a.contentHeight(), TitleStyle.Render("› source"), body, "Enter: open in browser • Esc: back")
}

func (a *App) helpView() string {
	rows := []string{TitleStyle.Render("› keys"), ""}
	for _, b := range a.keyHandler.bindingHelp() {
		rows = append(rows, fmt.Sprintf("%s  %s", ModalHighlightStyle.Width(8).Render(b[0]), ModalTextStyle.Render(b[1])))
	}
	rows = append(rows, "", renderHelp("Esc or "+a.config.Keys.Bindings.Help+" to close"))
	return renderCentered(a.width, a.contentHeight(), lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a *App) statusBar() string {
	line := a.renderStatus()
	if line == "" {
		line = strings.Join(a.keyHandler.GetHelpForCurrentView(), " • ")
	}
	return StatusBarStyle.Width(a.width).Render(line)
}
