// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UnderscoreTud/skript-server-wizard/internal/config"
	"github.com/UnderscoreTud/skript-server-wizard/internal/document"
	"github.com/UnderscoreTud/skript-server-wizard/internal/lineedit"
	"github.com/UnderscoreTud/skript-server-wizard/internal/remote"
	"github.com/UnderscoreTud/skript-server-wizard/internal/session"
	"github.com/UnderscoreTud/skript-server-wizard/internal/setup"
	"github.com/UnderscoreTud/skript-server-wizard/internal/storage"
)

type shell struct {
	t  *testing.T
	d  *Dispatcher
	st *session.State
}

func newShell(t *testing.T, env *Env) *shell {
	t.Helper()
	r := NewRegistry()
	require.NoError(t, RegisterBuiltins(r))
	r.Freeze()
	if env == nil {
		env = &Env{}
	}
	if env.Config == nil {
		env.Config = config.Default()
	}
	if env.Store == nil {
		env.Store = storage.NewMemoryStore()
	}
	hist := lineedit.NewHistory(10)
	return &shell{t: t, d: NewDispatcher(r, env), st: session.NewState(hist)}
}

// run dispatches line and fails the test on error.
func (s *shell) run(line string) document.Value {
	s.t.Helper()
	out, err := s.d.Dispatch(context.Background(), line, s.st)
	require.NoError(s.t, err, line)
	return out.Value
}

func (s *shell) fail(line string) error {
	s.t.Helper()
	_, err := s.d.Dispatch(context.Background(), line, s.st)
	require.Error(s.t, err, line)
	return err
}

func TestRegisterBuiltins_Twice(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, RegisterBuiltins(r))
	assert.ErrorIs(t, RegisterBuiltins(r), ErrDuplicateCommand)
}

func TestBuiltins_HaveUsageAndCategory(t *testing.T) {
	for _, cmd := range Builtins() {
		assert.NotEmpty(t, cmd.Usage, cmd.Name)
		assert.Contains(t, categoryOrder, cmd.Category, cmd.Name)
		assert.True(t, strings.HasPrefix(cmd.Usage, cmd.Name), cmd.Name)
	}
}

func TestBuiltin_SayAndExit(t *testing.T) {
	s := newShell(t, nil)
	assert.Equal(t, document.String("hello world now"), s.run(`say "hello world" now`))
	assert.Equal(t, document.String("x"), s.run(`echo x`))

	assert.False(t, s.st.Exiting())
	s.run("quit")
	assert.True(t, s.st.Exiting())
}

func TestBuiltin_Help(t *testing.T) {
	s := newShell(t, nil)
	text, _ := s.run("help").AsString()
	assert.Contains(t, text, "## General")
	assert.Contains(t, text, "`exit` (quit)")
	assert.Less(t, strings.Index(text, "## General"), strings.Index(text, "## Servers"))

	text, _ = s.run("help get").AsString()
	assert.Contains(t, text, "Usage: `get <name>`")
	assert.Contains(t, text, "exactly 1 argument")

	assert.ErrorIs(t, s.fail("help nope"), ErrUnknownCommand)
}

func TestBuiltin_Variables(t *testing.T) {
	s := newShell(t, nil)

	assert.False(t, s.run(`set server '{"name":"lobby","ports":[25565,25566]}'`).IsValid())
	assert.Equal(t, `{"name":"lobby","ports":[25565,25566]}`, document.Serialize(s.run("get server")))
	assert.Equal(t, document.Int(25566), s.run("query server ports.1"))

	yaml, _ := s.run("yaml server").AsString()
	assert.Contains(t, yaml, "name: lobby")

	s.run(`set n 1`)
	assert.Equal(t, []string{"n", "server"}, s.run("vars").Keys())

	s.run("unset n")
	assert.ErrorIs(t, s.fail("get n"), ErrUnknownVariable)
	assert.ErrorIs(t, s.fail("unset n"), ErrUnknownVariable)
	assert.ErrorIs(t, s.fail(`set bad '{"a":'`), document.ErrMalformedDocument)
	assert.ErrorIs(t, s.fail("query server ports.9"), document.ErrPathNotFound)
}

func TestBuiltin_ParseAndLast(t *testing.T) {
	s := newShell(t, nil)
	assert.ErrorIs(t, s.fail("last"), ErrNoResult)

	v := s.run(`parse '{"b":1.5,"a":[true,null]}'`)
	assert.Equal(t, `{"b":1.5,"a":[true,null]}`, document.Serialize(v))
	assert.True(t, document.Equal(v, s.run("last")))

	err := s.fail(`parse '{"b":'`)
	assert.Equal(t, KindMalformedDocument, Kind(err))
}

func TestBuiltin_HistoryAndSession(t *testing.T) {
	s := newShell(t, nil)
	h := s.st.History()
	for _, line := range []string{"say a", "say b", "say c"} {
		require.NoError(t, h.Append(line))
	}
	assert.Equal(t, `["say b","say c"]`, document.Serialize(s.run("history 2")))
	assert.Equal(t, 3, s.run("history").Len())
	assert.Error(t, s.fail("history -1"))

	info := s.run("session")
	id, _ := info.Get("id")
	assert.Equal(t, document.String(s.st.ID()), id)
	hl, _ := info.Get("history")
	assert.Equal(t, document.Int(3), hl)
}

func TestBuiltin_Distance(t *testing.T) {
	s := newShell(t, nil)
	assert.Equal(t, document.Int(3), s.run("distance kitten sitting"))
}

func TestBuiltin_Store(t *testing.T) {
	s := newShell(t, nil)
	assert.ErrorIs(t, s.fail("save empty"), ErrNoResult)

	s.run(`parse '{"motd":"hi"}'`)
	s.run("save motd")
	s.run(`set cfg '[1,2]'`)
	s.run("save list cfg")

	assert.Equal(t, `["list","motd"]`, document.Serialize(s.run("docs")))
	assert.Equal(t, `{"motd":"hi"}`, document.Serialize(s.run("load motd")))
	assert.Equal(t, `{"motd":"hi"}`, document.Serialize(s.run("get motd")))
	s.run("load list copy")
	assert.Equal(t, `[1,2]`, document.Serialize(s.run("get copy")))

	s.run("drop list")
	assert.ErrorIs(t, s.fail("load list"), storage.ErrNotFound)
	assert.ErrorIs(t, s.fail("save ../x cfg"), storage.ErrInvalidName)
}

func TestBuiltin_Config(t *testing.T) {
	cfg := config.Default()
	cfg.Remote.GitHubToken = "ghp_secret"
	s := newShell(t, &Env{Config: cfg})

	assert.NotContains(t, document.Serialize(s.run("config")), "ghp_secret")
	assert.Equal(t, document.String("[REDACTED]"), s.run("config remote.github_token"))

	assert.Equal(t, document.Int(4), s.run("config ui.indent 4"))
	assert.Equal(t, 4, cfg.UI.Indent)

	s.fail("config ui.indent 40")
	assert.Equal(t, 4, cfg.UI.Indent, "invalid values are not applied")
	s.fail("config ui.nope 1")

	assert.ErrorIs(t, s.fail("config store.backend memory"), ErrStartupSetting)
	assert.ErrorIs(t, s.fail("config Remote.Timeout-Secs 5"), ErrStartupSetting)
	assert.Equal(t, "file", cfg.Store.Backend, "startup settings are not applied")
	assert.Equal(t, document.String("4G"), s.run("config setup.memory 4G"))

	enum, err := document.Lookup(s.run("schema"), "properties.ui.properties.color.enum")
	require.NoError(t, err)
	assert.Equal(t, 3, enum.Len())
}

func TestBuiltin_Remote(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/paper", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"versions":["1.20.4","1.21"]}`)
	})
	mux.HandleFunc("/paper/versions/1.21", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"builds":[1,2]}`)
	})
	mux.HandleFunc("/repos/SkriptLang/Skript/releases", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id":7,"name":"2.9","tag_name":"2.9","html_url":"u","draft":false,"prerelease":false}]`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := newShell(t, &Env{
		Paper:  remote.NewPaper(srv.URL+"/paper", remote.Options{}),
		GitHub: remote.NewGitHub(srv.URL, "", remote.Options{}),
	})

	assert.Equal(t, `["1.20.4","1.21"]`, document.Serialize(s.run("paper versions")))
	assert.Equal(t, `[1,2]`, document.Serialize(s.run("paper builds 1.21")))
	url, err := document.Lookup(s.run("paper latest"), "url")
	require.NoError(t, err)
	assert.Equal(t, document.String(srv.URL+"/paper/versions/1.21/builds/2/downloads/paper-1.21-2.jar"), url)

	tag, err := document.Lookup(s.run("github latest SkriptLang/Skript"), "tag_name")
	require.NoError(t, err)
	assert.Equal(t, document.String("2.9"), tag)

	assert.ErrorIs(t, s.fail("paper builds"), ErrArityMismatch)
	assert.ErrorIs(t, s.fail("paper download 1.21"), ErrUnknownSubcommand)
	assert.ErrorIs(t, s.fail("github latest Skript"), remote.ErrInvalidRepository)
	assert.ErrorIs(t, s.fail("github assets SkriptLang/Skript"), ErrArityMismatch)
	assert.ErrorIs(t, s.fail("github foo bar"), ErrUnknownSubcommand)
	assert.ErrorIs(t, s.fail("github foo SkriptLang/Skript"), ErrUnknownSubcommand)
}

func newSetupServer(t *testing.T) *httptest.Server {
	t.Helper()
	var skriptJar bytes.Buffer
	zw := zip.NewWriter(&skriptJar)
	w, err := zw.Create("config.sk")
	require.NoError(t, err)
	fmt.Fprint(w, "enable effect commands: false\n")
	require.NoError(t, zw.Close())

	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/paper", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"versions":["1.20.4","1.21"]}`)
	})
	mux.HandleFunc("/paper/versions/1.21", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"builds":[1,2]}`)
	})
	mux.HandleFunc("/paper/versions/1.21/builds/2/downloads/paper-1.21-2.jar", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "paper")
	})
	mux.HandleFunc("/repos/SkriptLang/Skript/releases", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id":7,"name":"2.9","tag_name":"2.9","draft":false,"prerelease":false}]`)
	})
	mux.HandleFunc("/repos/SkriptLang/Skript/releases/tags/2.8", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":6,"name":"2.8","tag_name":"2.8","draft":false,"prerelease":false}`)
	})
	for _, id := range []string{"6", "7"} {
		mux.HandleFunc("/repos/SkriptLang/Skript/releases/"+id+"/assets", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintf(w, `[{"name":"Skript.jar","content_type":"application/java-archive","browser_download_url":%q}]`, srv.URL+"/dl/Skript.jar")
		})
	}
	mux.HandleFunc("/repos/SkriptHub/skript-reflect/releases/tags/v2.5", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":9,"tag_name":"v2.5","draft":false,"prerelease":false}`)
	})
	mux.HandleFunc("/repos/SkriptHub/skript-reflect/releases/9/assets", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `[{"name":"reflect.jar","content_type":"application/java-archive","browser_download_url":%q}]`, srv.URL+"/dl/reflect.jar")
	})
	mux.HandleFunc("/repos/SkriptHub/empty/releases", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id":10,"tag_name":"1.0","draft":false,"prerelease":false}]`)
	})
	mux.HandleFunc("/repos/SkriptHub/empty/releases/10/assets", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	})
	mux.HandleFunc("/dl/Skript.jar", func(w http.ResponseWriter, r *http.Request) {
		w.Write(skriptJar.Bytes())
	})
	mux.HandleFunc("/dl/reflect.jar", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "reflect")
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestBuiltin_Setup(t *testing.T) {
	srv := newSetupServer(t)
	cfg := config.Default()
	cfg.Setup.Dir = t.TempDir()
	s := newShell(t, &Env{
		Config:     cfg,
		Paper:      remote.NewPaper(srv.URL+"/paper", remote.Options{}),
		GitHub:     remote.NewGitHub(srv.URL, "", remote.Options{}),
		Downloader: remote.NewDownloader(remote.Options{}),
	})

	out := s.run("setup test latest 2.8 SkriptHub/skript-reflect@v2.5")
	build, err := document.Lookup(out, "paper.build")
	require.NoError(t, err)
	assert.Equal(t, document.Int(2), build)
	plugins, err := document.Lookup(out, "plugins")
	require.NoError(t, err)
	assert.Equal(t,
		`[{"name":"Skript","version":"2.8","file":"Skript-2.8.jar"},{"name":"skript-reflect","version":"v2.5","file":"skript-reflect-v2.5.jar"}]`,
		document.Serialize(plugins))

	dir := filepath.Join(cfg.Setup.Dir, "test")
	for _, f := range []string{"server.jar", "eula.txt", "run.bat", "plugins/Skript-2.8.jar", "plugins/skript-reflect-v2.5.jar"} {
		assert.FileExists(t, filepath.Join(dir, filepath.FromSlash(f)))
	}
	conf, err := os.ReadFile(filepath.Join(dir, "plugins", "Skript", "config.sk"))
	require.NoError(t, err)
	assert.Equal(t, "enable effect commands: true\n", string(conf))

	run, err := os.ReadFile(filepath.Join(dir, "run.bat"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(run), "java -Xmx2G "))

	// Only the latest Skript exists for an omitted tag.
	s.run("setup second")
	assert.FileExists(t, filepath.Join(cfg.Setup.Dir, "second", "plugins", "Skript-2.9.jar"))

	s.run("config setup.memory 4G")
	s.run("setup third 1.21")
	run, err = os.ReadFile(filepath.Join(cfg.Setup.Dir, "third", "run.bat"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(run), "java -Xmx4G "), "setup reads settings per call")
}

func TestBuiltin_SetupFailures(t *testing.T) {
	srv := newSetupServer(t)
	cfg := config.Default()
	cfg.Setup.Dir = t.TempDir()
	s := newShell(t, &Env{
		Config:     cfg,
		Paper:      remote.NewPaper(srv.URL+"/paper", remote.Options{}),
		GitHub:     remote.NewGitHub(srv.URL, "", remote.Options{}),
		Downloader: remote.NewDownloader(remote.Options{}),
	})

	assert.ErrorIs(t, s.fail("setup ../escape"), setup.ErrInvalidName)
	assert.ErrorIs(t, s.fail("setup bad 1.21 latest not-a-repo"), remote.ErrInvalidRepository)
	assert.ErrorIs(t, s.fail("setup bad 1.99"), remote.ErrNoBuilds)
	assert.ErrorIs(t, s.fail("setup bad latest 0.1"), remote.ErrUnknownTag)
	assert.ErrorIs(t, s.fail("setup bad latest latest SkriptHub/empty"), ErrNoJarAsset)

	entries, err := os.ReadDir(cfg.Setup.Dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "failed setups leave no folders")

	require.NoError(t, os.Mkdir(filepath.Join(cfg.Setup.Dir, "taken"), 0755))
	assert.ErrorIs(t, s.fail("setup taken"), setup.ErrServerExists)
	assert.DirExists(t, filepath.Join(cfg.Setup.Dir, "taken"))
}

func TestBuiltin_GitHubTags(t *testing.T) {
	srv := newSetupServer(t)
	s := newShell(t, &Env{GitHub: remote.NewGitHub(srv.URL, "", remote.Options{})})

	id, err := document.Lookup(s.run("github tag SkriptLang/Skript 2.8"), "id")
	require.NoError(t, err)
	assert.Equal(t, document.Int(6), id)

	byTag := s.run("github assets SkriptLang/Skript 2.8")
	byID := s.run("github assets SkriptLang/Skript 6")
	assert.Equal(t, document.Serialize(byID), document.Serialize(byTag))
	assert.ErrorIs(t, s.fail("github tag SkriptLang/Skript 0.1"), remote.ErrUnknownTag)
}

func TestBuiltin_MissingServices(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, RegisterBuiltins(r))
	d := NewDispatcher(r, &Env{})
	st := session.NewState(nil)

	for _, line := range []string{"docs", "config", "paper versions", "github search x", "setup x"} {
		_, err := d.Dispatch(context.Background(), line, st)
		assert.Error(t, err, line)
		assert.Equal(t, KindCommandFailed, Kind(err), line)
	}
	out, err := d.Dispatch(context.Background(), "history", st)
	require.NoError(t, err)
	assert.Equal(t, 0, out.Value.Len())
}
