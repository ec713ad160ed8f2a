package main

import (
	"path/filepath"
	"testing"

	"scribe/internal/testsupport"
)

func addTestRecording(t *testing.T, env *cliTestEnv, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	testsupport.WriteFile(t, path, 64*1024)
	out, err := runCLI(t, env, "add", path, "--title", "Weekly Sync")
	if err != nil {
		t.Fatalf("add %s: %v", name, err)
	}
	requireContains(t, out, "Queued")
	return path
}

func TestAddAndListQueue(t *testing.T) {
	env := setupCLITestEnv(t)
	addTestRecording(t, env, "meeting.mp3")

	out, err := runCLI(t, env, "queue", "list")
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	requireContains(t, out, "Weekly Sync")
	requireContains(t, out, "pending")
}

func TestAddRejectsUnsupportedExtension(t *testing.T) {
	env := setupCLITestEnv(t)
	path := filepath.Join(t.TempDir(), "notes.txt")
	testsupport.WriteFile(t, path, 128)

	if _, err := runCLI(t, env, "add", path); err == nil {
		t.Fatal("expected unsupported extension to be rejected")
	}
}

func TestAddRejectsInvalidLanguage(t *testing.T) {
	env := setupCLITestEnv(t)
	path := filepath.Join(t.TempDir(), "meeting.mp3")
	testsupport.WriteFile(t, path, 128)

	if _, err := runCLI(t, env, "add", path, "--language", "not-a-tag!"); err == nil {
		t.Fatal("expected invalid language tag to be rejected")
	}
}

func TestQueueShowDetails(t *testing.T) {
	env := setupCLITestEnv(t)
	source := addTestRecording(t, env, "standup.mp3")

	out, err := runCLI(t, env, "queue", "show", "1")
	if err != nil {
		t.Fatalf("queue show: %v", err)
	}
	requireContains(t, out, "Job #1")
	requireContains(t, out, "Weekly Sync")
	requireContains(t, out, source)
}

func TestQueueListStatusFilter(t *testing.T) {
	env := setupCLITestEnv(t)
	addTestRecording(t, env, "meeting.mp3")

	out, err := runCLI(t, env, "queue", "list", "--status", "completed")
	if err != nil {
		t.Fatalf("queue list --status: %v", err)
	}
	requireContains(t, out, "Queue is empty")

	if _, err := runCLI(t, env, "queue", "list", "--status", "bogus"); err == nil {
		t.Fatal("expected unknown status to be rejected")
	}
}

func TestQueueClear(t *testing.T) {
	env := setupCLITestEnv(t)
	addTestRecording(t, env, "meeting.mp3")

	out, err := runCLI(t, env, "queue", "clear")
	if err != nil {
		t.Fatalf("queue clear: %v", err)
	}
	requireContains(t, out, "Removed 1 job(s)")

	out, err = runCLI(t, env, "queue", "list")
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	requireContains(t, out, "Queue is empty")
}

func TestQueueRetryRequiresResettableStatus(t *testing.T) {
	env := setupCLITestEnv(t)
	addTestRecording(t, env, "meeting.mp3")

	// Pending jobs cannot be reset.
	if _, err := runCLI(t, env, "queue", "retry", "1"); err == nil {
		t.Fatal("expected retry of a pending job to fail")
	}
}

func TestQueueHealth(t *testing.T) {
	env := setupCLITestEnv(t)
	addTestRecording(t, env, "meeting.mp3")

	out, err := runCLI(t, env, "queue", "health")
	if err != nil {
		t.Fatalf("queue health: %v", err)
	}
	requireContains(t, out, "Database:")
	requireContains(t, out, "Exists:   yes")
}
