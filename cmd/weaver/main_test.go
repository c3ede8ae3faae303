package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ravi-parthasarathy/weaver/pkg/catalog"
	"github.com/ravi-parthasarathy/weaver/pkg/graph"
	"github.com/ravi-parthasarathy/weaver/pkg/graphio"
	"github.com/ravi-parthasarathy/weaver/pkg/session"
)

const testCatalog = `{
  "Source": {"parameters": {"rate": 1}, "inputs": [], "outputs": ["y", "rollout"], "state": []},
  "Sink":   {"parameters": {}, "inputs": ["x"], "outputs": [], "state": []},
  "Cell":   {"parameters": {"size": 8}, "inputs": ["x", "h"], "outputs": ["y"], "state": ["h"]}
}`

// ─── TestInitLogger ───────────────────────────────────────────────────────────

func TestInitLogger_ValidLevels(t *testing.T) {
	for _, lvl := range []string{"debug", "info", "warn", "error", "DEBUG", "INFO"} {
		if err := initLogger(lvl, "text"); err != nil {
			t.Errorf("initLogger(%q, text): unexpected error: %v", lvl, err)
		}
	}
}

func TestInitLogger_ValidFormats(t *testing.T) {
	for _, fmt := range []string{"text", "json", "TEXT", "JSON"} {
		if err := initLogger("info", fmt); err != nil {
			t.Errorf("initLogger(info, %q): unexpected error: %v", fmt, err)
		}
	}
}

func TestInitLogger_InvalidLevel(t *testing.T) {
	if err := initLogger("verbose", "text"); err == nil {
		t.Fatal("expected error for unknown log level")
	}
}

func TestInitLogger_InvalidFormat(t *testing.T) {
	if err := initLogger("info", "xml"); err == nil {
		t.Fatal("expected error for unknown log format")
	}
}

func TestInitLogger_InstallsHandler(t *testing.T) {
	t.Cleanup(func() { slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil))) })

	require.NoError(t, initLogger("debug", "text"))
	text, ok := slog.Default().Handler().(*log.Logger)
	require.True(t, ok, "text format installs %T", slog.Default().Handler())
	assert.Equal(t, log.DebugLevel, text.GetLevel())

	require.NoError(t, initLogger("error", "json"))
	jsonHandler, ok := slog.Default().Handler().(*slog.JSONHandler)
	require.True(t, ok, "json format installs %T", slog.Default().Handler())
	assert.False(t, jsonHandler.Enabled(t.Context(), slog.LevelWarn))
	assert.True(t, jsonHandler.Enabled(t.Context(), slog.LevelError))
}

// ─── CLI ──────────────────────────────────────────────────────────────────────

type cli struct {
	t       *testing.T
	catalog string
	dir     string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	root := t.TempDir()
	path := filepath.Join(root, "components.json")
	require.NoError(t, os.WriteFile(path, []byte(testCatalog), 0o644))
	return &cli{t: t, catalog: path, dir: filepath.Join(root, "graph")}
}

func (c *cli) run(args ...string) (string, error) {
	c.t.Helper()
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--catalog", c.catalog, "--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (c *cli) ok(args ...string) string {
	c.t.Helper()
	out, err := c.run(args...)
	require.NoError(c.t, err, "weaver %s", strings.Join(args, " "))
	return out
}

func (c *cli) graph() *graph.Graph {
	c.t.Helper()
	g, err := graphio.LoadDir(c.dir)
	require.NoError(c.t, err)
	return g
}

func TestCLI_EditSession(t *testing.T) {
	c := newCLI(t)

	assert.Contains(t, c.ok("new", c.dir), "created empty graph")
	_, err := c.run("new", c.dir)
	assert.Error(t, err, "new must not clobber an existing graph")
	c.ok("new", c.dir, "--force")

	assert.Equal(t, "redraw_node A\n", c.ok("add", c.dir, "Source", "A", "--param", "rate=3"))
	assert.Equal(t, "redraw_node B\n", c.ok("add", c.dir, "Sink", "B"))
	assert.Equal(t, "redraw_all_edges\n", c.ok("connect", c.dir, "y", "A", "x", "B"))

	g := c.graph()
	require.Contains(t, g.Instances, "A")
	assert.Equal(t, "3", g.Instances["A"].Parameters["rate"])
	assert.Equal(t, graph.Ports{"y": {"(1,)"}, "rollout": {"(2,1)"}}, g.Instances["A"].Outputs)
	assert.Equal(t, []graph.Flow{{SourcePort: "y", SourceComponent: "A", TargetPort: "x", TargetComponent: "B"}}, g.Flows)

	assert.Equal(t, "rename_node A -> A2\nredraw_all_edges\n", c.ok("configure", c.dir, "A", "--name", "A2"))
	assert.Equal(t, "A2", c.graph().Flows[0].SourceComponent)

	text := c.ok("graph", c.dir)
	assert.Contains(t, text, "Graph: rwtest  (2 components, 1 flows)")
	assert.Contains(t, text, "A2.y  →  B.x")

	dot := c.ok("graph", c.dir, "--format", "dot")
	assert.Contains(t, dot, "digraph")
	assert.Contains(t, dot, "A2")

	assert.Contains(t, c.ok("lint", c.dir), "OK: graph")

	assert.Equal(t, "no change\n", c.ok("configure", c.dir, "A2"))
	assert.Equal(t, "redraw_node A2\n", c.ok("configure", c.dir, "A2", "--param", "rate=4"))

	assert.Equal(t,
		"remove_edges_touching A2\nredraw_node A2\nredraw_all_edges\n",
		c.ok("configure", c.dir, "A2", "--shape", "y=(2,)", "--shape", "y=(3,)"))
	g = c.graph()
	assert.Empty(t, g.Flows)
	assert.Equal(t, []string{"(2,)", "(3,)"}, g.Instances["A2"].Outputs["y"])

	c.ok("configure", c.dir, "A2", "--disable", "rollout")
	assert.NotContains(t, c.graph().Instances["A2"].Outputs, "rollout")

	c.ok("connect", c.dir, "y", "A2", "x", "B")
	assert.Equal(t, "no change\n", c.ok("disconnect", c.dir, "y", "B", "x", "A2"))
	assert.Equal(t, "redraw_all_edges\n", c.ok("disconnect", c.dir, "y", "A2", "x", "B"))

	assert.Equal(t, "remove_edges_touching B\nremove_node B\nredraw_all_edges\n", c.ok("delete", c.dir, "B"))
	assert.Equal(t, "no change\n", c.ok("delete", c.dir, "B"))

	bundle := filepath.Join(t.TempDir(), "temp.json")
	c.ok("bundle", c.dir, bundle)
	data, err := os.ReadFile(bundle)
	require.NoError(t, err)
	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Contains(t, doc, "config")
	assert.Contains(t, doc, "components")
	assert.Contains(t, doc, "flows")
}

func TestCLI_ConfigureRetype(t *testing.T) {
	c := newCLI(t)
	c.ok("new", c.dir)
	c.ok("add", c.dir, "Source", "A")
	c.ok("add", c.dir, "Sink", "B")
	c.ok("connect", c.dir, "y", "A", "x", "B")

	out := c.ok("configure", c.dir, "B", "--type", "Cell", "--name", "C", "--disable", "inputs.h", "--enable", "state.h")
	assert.Equal(t, "remove_edges_touching B\nrename_node B -> C\nredraw_node C\nredraw_all_edges\n", out)

	g := c.graph()
	assert.Empty(t, g.Flows)
	in := g.Instances["C"]
	require.NotNil(t, in)
	assert.Equal(t, "Cell", in.Type)
	assert.Equal(t, map[string]string{"size": "8"}, in.Parameters)
	assert.Equal(t, graph.Ports{"x": {"(1,)"}}, in.Inputs)
	assert.Equal(t, graph.Ports{"h": {"(1,)"}}, in.State)
}

func TestCLI_ErrorsLeaveGraphUntouched(t *testing.T) {
	c := newCLI(t)
	c.ok("new", c.dir)
	c.ok("add", c.dir, "Source", "A")
	c.ok("add", c.dir, "Sink", "B")
	before := c.graph()

	tests := []struct {
		args []string
		msg  string
	}{
		{[]string{"add", c.dir, "Sink", "B"}, `A component named "B" already exists`},
		{[]string{"add", c.dir, "Nope", "Z"}, `There is no component type called "Nope"`},
		{[]string{"add", c.dir, "Sink", "Z", "--shape", "y=(1,)"}, `have no port field "y"`},
		{[]string{"configure", c.dir, "Q"}, `There is no component named "Q"`},
		{[]string{"configure", c.dir, "A", "--name", "B"}, `already exists`},
		{[]string{"connect", c.dir, "x", "B", "y", "A"}, `cannot send from "x"`},
		{[]string{"connect", c.dir, "y", "A", "x", "Q"}, `There is no component named "Q"`},
		{[]string{"add", c.dir, "Sink", "Z", "--param", "novalue"}, `want key=value`},
		{[]string{"graph", filepath.Join(t.TempDir(), "nowhere")}, `File not found`},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args[:1], " "), func(t *testing.T) {
			_, err := c.run(tt.args...)
			require.Error(t, err)
			assert.Contains(t, session.Message(err), tt.msg)
			assert.True(t, before.Equal(c.graph()))
		})
	}
}

func TestCLI_Apply(t *testing.T) {
	c := newCLI(t)
	c.ok("new", c.dir)

	intents := filepath.Join(t.TempDir(), "intents.json")
	require.NoError(t, os.WriteFile(intents, []byte(`[
		{"op": "add", "type": "Source", "name": "A", "outputs": {"y": ["(1,)"]}},
		{"op": "add", "type": "Sink", "name": "B", "inputs": {"x": ["(1,)"]}},
		{"op": "connect", "source_port": "y", "source_component": "A", "target_port": "x", "target_component": "B"}
	]`), 0o644))
	out := c.ok("apply", c.dir, intents)
	assert.Equal(t, "redraw_node A\nredraw_node B\nredraw_all_edges\n", out)
	assert.Len(t, c.graph().Flows, 1)

	// A failing intent aborts the batch before anything is saved.
	require.NoError(t, os.WriteFile(intents, []byte(`[
		{"op": "delete", "name": "B"},
		{"op": "connect", "source_port": "y", "source_component": "A", "target_port": "x", "target_component": "B"}
	]`), 0o644))
	_, err := c.run("apply", c.dir, intents)
	require.Error(t, err)
	assert.Contains(t, c.graph().Instances, "B")
	assert.Len(t, c.graph().Flows, 1)
}

func TestCLI_LintReportsProblems(t *testing.T) {
	c := newCLI(t)
	require.NoError(t, os.MkdirAll(c.dir, 0o755))
	g := graph.New()
	g.Instances["X"] = &graph.Instance{Name: "X", Type: "Ghost", Parameters: map[string]string{}, Inputs: graph.Ports{}, Outputs: graph.Ports{}, State: graph.Ports{}}
	require.NoError(t, graphio.SaveDir(c.dir, g))

	_, err := c.run("lint", c.dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "graph validation failed")
}

func TestCLI_Types(t *testing.T) {
	c := newCLI(t)
	out := c.ok("types")
	assert.True(t, strings.HasPrefix(out, "Cell\n"), out)
	assert.Contains(t, out, "Source\n  parameters: rate=1\n")
}

func TestResolvePort(t *testing.T) {
	cat, err := catalog.ParseJSON([]byte(testCatalog))
	require.NoError(t, err)
	def, err := cat.GetType("Cell")
	require.NoError(t, err)

	category, field, err := resolvePort(def, "y")
	require.NoError(t, err)
	assert.Equal(t, []string{"outputs", "y"}, []string{category, field})

	category, _, err = resolvePort(def, "state.h")
	require.NoError(t, err)
	assert.Equal(t, "state", category)

	_, _, err = resolvePort(def, "h")
	assert.ErrorContains(t, err, "inputs.h")

	_, _, err = resolvePort(def, "outputs.h")
	var ufe *graph.UnknownFieldError
	assert.ErrorAs(t, err, &ufe)
}

func TestCLI_Config(t *testing.T) {
	c := newCLI(t)
	path := filepath.Join(t.TempDir(), "config.json")

	out := c.ok("config", path)
	assert.Contains(t, out, "Graph Name:    rwtest")
	_, err := os.Stat(path)
	assert.ErrorIs(t, err, os.ErrNotExist, "showing a config must not write it")

	out = c.ok("config", path, "--graph-name", "walker", "--rollout-steps", "20", "--num-channels", "2")
	assert.Contains(t, out, "Rollout Steps: 20")
	cfg, err := session.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, session.Config{GraphName: "walker", Iterations: 1, RolloutSteps: 20, NumChannels: 2}, cfg)

	c.ok("config", path, "--iterations", "7")
	cfg, err = session.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Iterations)
	assert.Equal(t, "walker", cfg.GraphName)

	_, err = c.run("config", path, "--num-channels", "-1")
	require.Error(t, err)
	cfg, err = session.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.NumChannels)

	// The saved config drives the default rollout shape of new components.
	c.ok("new", c.dir)
	c.ok("--config", path, "add", c.dir, "Source", "A")
	assert.Equal(t, []string{"(3,20)"}, c.graph().Instances["A"].Outputs["rollout"])
}
