package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Makepad-fr/tada/internal/auth"
	"github.com/Makepad-fr/tada/internal/ui"
)

const authUsage = "usage: todo auth <login|logout|status|whoami>"

func (e *env) doAuth(a []string) int {
	if len(a) != 1 {
		ui.Fail(authUsage)
		return 2
	}
	switch a[0] {
	case "login":
		return e.doAuthLogin()
	case "logout":
		return doAuthLogout()
	case "status":
		return doAuthStatus()
	case "whoami":
		return doAuthWhoAmI()
	}
	ui.Fail(authUsage)
	return 2
}

func (e *env) doAuthLogin() int {
	fmt.Fprint(ui.Stdout(), "Paste your token: ")
	line, err := bufio.NewReader(e.stdin).ReadString('\n')
	token := strings.TrimSpace(line)
	if token == "" {
		if err != nil {
			ui.Fail("read token: " + err.Error())
			return 1
		}
		ui.Fail("read token: empty input")
		return 2
	}
	if err := auth.SetToken(token, nil); err != nil {
		ui.Fail("save token: " + err.Error())
		return 1
	}
	ui.OK("logged in")
	return 0
}

func doAuthLogout() int {
	ti, _ := auth.GetToken()
	if ti != nil && ti.Source == auth.SourceEnv {
		ui.OK("token is provided by " + auth.EnvToken + " env var (nothing to delete)")
		return 0
	}
	if err := auth.DeleteToken(); err != nil {
		ui.Fail("logout: " + err.Error())
		return 1
	}
	ui.OK("logged out")
	return 0
}

func doAuthStatus() int {
	out := ui.Stdout()
	ti, err := auth.GetToken()
	if err != nil {
		ui.Fail("status: " + err.Error())
		return 1
	}
	if ti == nil {
		fmt.Fprintln(out, ui.Current().Muted.Render("not logged in"))
		fmt.Fprintln(out, "Run: todo auth login")
		return 0
	}
	fmt.Fprintf(out, "source: %s\n", ti.Source)
	if ti.ExpiresAt != nil {
		exp := ti.ExpiresAt.UTC().Format(time.RFC3339)
		if ti.Expired(time.Now()) {
			exp += " (expired)"
		}
		fmt.Fprintf(out, "expires: %s\n", exp)
	} else {
		fmt.Fprintln(out, "expires: (unknown)")
	}
	fmt.Fprintln(out, "env override: "+auth.EnvToken)
	return 0
}

// whoami decodes JWT claims locally without verifying them; opaque tokens
// print basic info.
func doAuthWhoAmI() int {
	out := ui.Stdout()
	ti, _ := auth.GetToken()
	if ti == nil {
		ui.Fail("not logged in. Run: todo auth login")
		return 2
	}
	if claims, err := auth.Claims(ti.Token); err == nil {
		b, err := json.MarshalIndent(claims, "", "  ")
		if err == nil {
			fmt.Fprintln(out, "JWT payload:")
			fmt.Fprintln(out, string(b))
			return 0
		}
	}
	fmt.Fprintln(out, "Opaque token (cannot introspect locally).")
	fmt.Fprintln(out, "source:", ti.Source)
	return 0
}

// bearer returns the saved token, or "" when not logged in.
func bearer() string {
	ti, _ := auth.GetToken()
	if ti == nil {
		return ""
	}
	return strings.TrimSpace(ti.Token)
}
