package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreisalomia/mini-jira/internal/query"
	"github.com/andreisalomia/mini-jira/internal/types"
)

const testDirectory = `
users:
  - id: olga
    email: olga@example.com
    role: admin
  - id: rita
    email: rita@example.com
  - id: dev
    email: dev@example.com
  - id: zed
    email: zed@example.com
projects:
  - id: web
    owner: olga
    members: [rita, dev]
`

// testEnv is an isolated working directory with a directory file and an
// auth secret, so every invocation opens the same sqlite store.
type testEnv struct {
	t      *testing.T
	tokens map[string]string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	t.Setenv("NO_COLOR", "1")
	t.Setenv("MJ_NO_PAGER", "1")
	t.Setenv("MJ_AUTH_SECRET", "cli-test-secret")
	t.Setenv("MJ_TOKEN", "")
	require.NoError(t, os.MkdirAll(".minijira", 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(".minijira", "directory.yaml"), []byte(testDirectory), 0o600))
	return &testEnv{t: t, tokens: make(map[string]string)}
}

type result struct {
	stdout, stderr string
	code           int
}

func (e *testEnv) run(args ...string) result {
	e.t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return result{stdout: stdout.String(), stderr: stderr.String(), code: code}
}

// as runs a command with --json under user's token.
func (e *testEnv) as(user string, args ...string) result {
	e.t.Helper()
	tok, ok := e.tokens[user]
	if !ok {
		res := e.run("token", user)
		require.Equal(e.t, 0, res.code, res.stderr)
		tok = strings.TrimSpace(res.stdout)
		e.tokens[user] = tok
	}
	return e.run(append([]string{"--json", "--token", tok}, args...)...)
}

func decode[T any](t *testing.T, res result) T {
	t.Helper()
	require.Equal(t, 0, res.code, "stderr: %s", res.stderr)
	var v T
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &v), res.stdout)
	return v
}

// requireCode asserts a failed invocation and returns its JSON error code.
func requireCode(t *testing.T, res result, want types.Reason) {
	t.Helper()
	require.Equal(t, 1, res.code, "stdout: %s", res.stdout)
	var errObj map[string]string
	require.NoError(t, json.Unmarshal([]byte(res.stderr), &errObj), res.stderr)
	assert.Equal(t, string(want), errObj["code"], errObj["error"])
}

func (e *testEnv) create(user, title string, extra ...string) *types.Issue {
	e.t.Helper()
	args := append([]string{"create", "--project", "web", "--title", title}, extra...)
	return decode[*types.Issue](e.t, e.as(user, args...))
}

func TestLifecycleThroughCLI(t *testing.T) {
	env := newTestEnv(t)

	issue := env.create("rita", "Login page 500s", "--assignee", "dev", "--priority", "high")
	assert.Equal(t, types.StatusOpen, issue.Status)
	assert.Equal(t, types.PriorityHigh, issue.Priority)
	assert.Equal(t, "rita", issue.ReporterID)
	assert.True(t, strings.HasPrefix(issue.ID, "mj-"), issue.ID)

	res := env.as("dev", "update", issue.ID, "--status", "in_progress")
	got := decode[*types.Issue](t, res)
	assert.Equal(t, types.StatusInProgress, got.Status)
	assert.Empty(t, res.stderr, "a committed change logs nothing at the default level")

	requireCode(t, env.as("rita", "update", issue.ID, "--status", "done"), types.ReasonInvalidTransition)
	requireCode(t, env.as("zed", "update", issue.ID, "--title", "hijack"), types.ReasonForbidden)

	got = decode[*types.Issue](t, env.as("dev", "update", issue.ID, "--status", "done"))
	assert.Equal(t, types.StatusDone, got.Status)

	entries := decode[[]*types.AuditEntry](t, env.as("olga", "audit", issue.ID))
	actions := make([]types.Action, 0, len(entries))
	for _, e := range entries {
		actions = append(actions, e.Action)
	}
	assert.Equal(t, []types.Action{types.ActionCreated, types.ActionStatusChanged, types.ActionStatusChanged}, actions)
	assert.Equal(t, "dev", entries[2].ActorID)
}

func TestAuthentication(t *testing.T) {
	env := newTestEnv(t)

	requireCode(t, env.run("--json", "list"), types.ReasonUnauthenticated)
	requireCode(t, env.run("--json", "--token", "garbage", "list"), types.ReasonUnauthenticated)

	t.Setenv("MJ_AUTH_SECRET", "another-secret")
	res := env.run("token", "rita")
	require.Equal(t, 0, res.code, res.stderr)
	forged := strings.TrimSpace(res.stdout)
	t.Setenv("MJ_AUTH_SECRET", "cli-test-secret")
	requireCode(t, env.run("--json", "--token", forged, "list"), types.ReasonUnauthenticated)

	t.Setenv("MJ_TOKEN", forged)
	requireCode(t, env.run("--json", "list"), types.ReasonUnauthenticated)
}

func TestTokenCommand(t *testing.T) {
	env := newTestEnv(t)

	requireCode(t, env.run("--json", "token", "nobody"), types.ReasonNotFound)

	out := decode[map[string]string](t, env.run("--json", "token", "rita", "--ttl", "1h"))
	assert.Equal(t, "rita", out["user_id"])
	assert.NotEmpty(t, out["token"])

	t.Setenv("MJ_AUTH_SECRET", "")
	res := env.run("token", "rita")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "auth secret is required")
}

func TestUpdateValidation(t *testing.T) {
	env := newTestEnv(t)
	issue := env.create("rita", "Flaky test")

	requireCode(t, env.as("rita", "update", issue.ID), types.ReasonValidation)
	requireCode(t, env.as("rita", "update", issue.ID, "--priority", "urgent"), types.ReasonValidation)
	requireCode(t, env.as("rita", "update", issue.ID, "--title", "   "), types.ReasonValidation)
	requireCode(t, env.as("rita", "update", "mj-nope00", "--title", "x"), types.ReasonNotFound)

	res := env.as("rita", "update", issue.ID, "--assignee", "dev", "--unassign")
	assert.Equal(t, 1, res.code, "assignee and unassign are mutually exclusive")

	got := decode[*types.Issue](t, env.as("rita", "update", issue.ID, "--assignee", "dev"))
	assert.Equal(t, "dev", got.AssigneeID)
	got = decode[*types.Issue](t, env.as("rita", "update", issue.ID, "--unassign"))
	assert.Empty(t, got.AssigneeID)
}

func TestListFiltersAndBoard(t *testing.T) {
	env := newTestEnv(t)
	a := env.create("rita", "Login page broken", "--priority", "high")
	b := env.create("rita", "Signup copy", "--assignee", "dev")
	c := env.create("dev", "Login timeout", "--assignee", "dev")
	decode[*types.Issue](t, env.as("dev", "update", c.ID, "--status", "in_progress"))

	ids := func(issues []*types.Issue) []string {
		out := make([]string, 0, len(issues))
		for _, i := range issues {
			out = append(out, i.ID)
		}
		return out
	}

	all := decode[[]*types.Issue](t, env.as("rita", "list", "--project", "web"))
	assert.Equal(t, []string{a.ID, b.ID, c.ID}, ids(all), "creation order")

	login := decode[[]*types.Issue](t, env.as("rita", "list", "--search", "LOGIN"))
	assert.Equal(t, []string{a.ID, c.ID}, ids(login))

	mine := decode[[]*types.Issue](t, env.as("dev", "list", "--assignee", "me", "--status", "open"))
	assert.Equal(t, []string{b.ID}, ids(mine))

	unassigned := decode[[]*types.Issue](t, env.as("dev", "list", "--assignee", "unassigned"))
	assert.Equal(t, []string{a.ID}, ids(unassigned))

	requireCode(t, env.as("dev", "list", "--status", "blocked"), types.ReasonValidation)

	board := decode[[]query.Column](t, env.as("rita", "list", "--board"))
	require.Len(t, board, 3)
	assert.Equal(t, types.StatusOpen, board[0].Status)
	assert.Len(t, board[0].Issues, 2)
	assert.Len(t, board[1].Issues, 1)
	assert.Empty(t, board[2].Issues)
}

func TestCommentsThroughCLI(t *testing.T) {
	env := newTestEnv(t)
	issue := env.create("rita", "Needs discussion")

	first := decode[*types.Comment](t, env.as("rita", "comments", "add", issue.ID, "First!"))
	notes := filepath.Join(t.TempDir(), "notes.md")
	require.NoError(t, os.WriteFile(notes, []byte("from a file"), 0o600))
	second := decode[*types.Comment](t, env.as("dev", "comments", "add", issue.ID, "-f", notes))
	assert.Equal(t, "from a file", second.Content)

	empty := env.as("rita", "comments", "add", issue.ID, "   ")
	requireCode(t, empty, types.ReasonValidation)
	assert.Contains(t, empty.stderr, "EMPTY_CONTENT")
	requireCode(t, env.as("zed", "comments", "add", issue.ID, "drive-by"), types.ReasonForbidden)
	requireCode(t, env.as("dev", "comments", "edit", first.ID, "not mine"), types.ReasonForbidden)

	edited := decode[*types.Comment](t, env.as("rita", "comments", "edit", first.ID, "First (edited)"))
	assert.Equal(t, "First (edited)", edited.Content)

	decode[map[string]string](t, env.as("dev", "comments", "rm", second.ID))
	requireCode(t, env.as("dev", "comments", "rm", second.ID), types.ReasonNotFound)

	live := decode[[]*types.Comment](t, env.as("olga", "comments", issue.ID))
	require.Len(t, live, 1)
	assert.Equal(t, first.ID, live[0].ID)

	detail := decode[map[string]json.RawMessage](t, env.as("olga", "show", issue.ID))
	assert.Contains(t, string(detail["comments"]), first.ID)
	assert.Contains(t, string(detail["title"]), "Needs discussion")
}

func TestNonMemberCannotRead(t *testing.T) {
	env := newTestEnv(t)
	issue := env.create("rita", "Secret roadmap")

	requireCode(t, env.as("zed", "show", issue.ID), types.ReasonForbidden)
	requireCode(t, env.as("zed", "audit", issue.ID), types.ReasonForbidden)
	requireCode(t, env.as("zed", "comments", issue.ID), types.ReasonForbidden)
	requireCode(t, env.as("zed", "list", "--project", "web"), types.ReasonForbidden)

	res := env.as("zed", "list")
	assert.NotContains(t, res.stdout, issue.ID)
	assert.Empty(t, decode[[]*types.Issue](t, res))
}

func TestDeleteKeepsAudit(t *testing.T) {
	env := newTestEnv(t)
	issue := env.create("rita", "Duplicate")

	requireCode(t, env.as("dev", "delete", issue.ID), types.ReasonForbidden)
	decode[map[string]string](t, env.as("olga", "delete", issue.ID))

	requireCode(t, env.as("olga", "show", issue.ID), types.ReasonNotFound)
	assert.Empty(t, decode[[]*types.Issue](t, env.as("olga", "list")))

	entries := decode[[]*types.AuditEntry](t, env.as("olga", "audit", issue.ID))
	require.Len(t, entries, 2)
	assert.Equal(t, types.ActionDeleted, entries[1].Action)
}

func TestAuditSince(t *testing.T) {
	env := newTestEnv(t)
	issue := env.create("rita", "Old news")

	recent := decode[[]*types.AuditEntry](t, env.as("rita", "audit", issue.ID, "--since", "-1h"))
	assert.Len(t, recent, 1)

	future := decode[[]*types.AuditEntry](t, env.as("rita", "audit", issue.ID, "--since", "+1d"))
	assert.Empty(t, future)

	requireCode(t, env.as("rita", "audit", issue.ID, "--since", "not-a-date"), types.ReasonValidation)
}

func TestHumanOutput(t *testing.T) {
	env := newTestEnv(t)
	issue := env.create("rita", "Readable output", "--description", "Steps:\n\n1. open page")
	tok := env.tokens["rita"]

	res := env.run("--token", tok, "show", issue.ID)
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, issue.ID)
	assert.Contains(t, res.stdout, "Status:    OPEN")
	assert.Contains(t, res.stdout, "Next:      IN_PROGRESS")
	assert.Contains(t, res.stdout, "1. open page")

	res = env.run("--token", tok, "list")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Readable output")
	assert.Contains(t, res.stdout, "1 issue(s)")

	res = env.run("--token", tok, "audit", issue.ID)
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "CREATED")

	res = env.run("--token", tok, "update", issue.ID, "--status", "done")
	assert.Equal(t, 1, res.code)
	assert.True(t, strings.HasPrefix(res.stderr, "Error: "), res.stderr)
	assert.Contains(t, res.stderr, "[INVALID_TRANSITION]")
}

func TestMalformedIssueID(t *testing.T) {
	env := newTestEnv(t)
	for _, args := range [][]string{
		{"show", "nodash"},
		{"audit", "mj-"},
		{"update", "abc-", "--title", "x"},
		{"delete", "nodash"},
		{"comments", "add", "nodash", "hello"},
	} {
		requireCode(t, env.as("rita", args...), types.ReasonValidation)
	}
}

func TestConfigCommands(t *testing.T) {
	env := newTestEnv(t)

	res := env.run("config", "set", "issue-prefix", "web")
	require.Equal(t, 0, res.code, res.stderr)

	res = env.run("config", "get", "issue-prefix")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, "web\n", res.stdout)

	issue := env.create("rita", "Prefixed")
	assert.True(t, strings.HasPrefix(issue.ID, "web-"), issue.ID)

	settings := decode[map[string]string](t, env.run("--json", "config", "list"))
	assert.Equal(t, "********", settings["auth.secret"])
	assert.Equal(t, "web", settings["issue-prefix"])

	res = env.run("config", "get", "auth.secret", "--reveal")
	assert.Equal(t, "cli-test-secret\n", res.stdout)
}

func TestVersion(t *testing.T) {
	env := newTestEnv(t)
	out := decode[map[string]string](t, env.run("--json", "version"))
	assert.Equal(t, Version, out["version"])
}

func TestUnknownCommandReportsError(t *testing.T) {
	env := newTestEnv(t)
	res := env.run("frobnicate")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "Error: unknown command")
}
