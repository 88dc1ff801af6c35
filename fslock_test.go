// Tests for the low-level locking surface and the portable [LockFile]
// wrapper. Contention is exercised with two independent handles on the
// same path: both flock(2) and LockFileEx bind locks to the open file
// description/handle, so the handles contend even inside one process.

package fslock

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"tools.zach/dev/fslock/oserr"
)

func lockPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "test.lock")
}

// ///////////////////////////////////////////////
// Low-Level Surface
// ///////////////////////////////////////////////

func TestOpenCreatesFile(t *testing.T) {
	path := lockPath(t)

	h, err := Open(NewPath(path))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer Close(h)

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("lock file not created: %v", err)
	}
}

func TestOpenExistingFile(t *testing.T) {
	path := lockPath(t)
	if err := os.WriteFile(path, []byte("leftover"), 0o644); err != nil {
		t.Fatal(err)
	}

	h, err := Open(NewPath(path))
	if err != nil {
		t.Fatalf("Open on existing file failed: %v", err)
	}
	Close(h)
}

func TestOpenMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "no-such-dir", "test.lock")

	_, err := Open(NewPath(path))
	if err == nil {
		t.Fatal("expected error opening inside a missing directory")
	}
	var oe *oserr.Error
	if !errors.As(err, &oe) {
		t.Fatalf("error type = %T, want *oserr.Error", err)
	}
	if oe.Code() == 0 {
		t.Error("expected a nonzero status code")
	}
	if oe.Error() == "" {
		t.Error("expected a rendered message")
	}
}

func TestContention(t *testing.T) {
	path := lockPath(t)

	a, err := Open(NewPath(path))
	if err != nil {
		t.Fatalf("open A: %v", err)
	}
	b, err := Open(NewPath(path))
	if err != nil {
		t.Fatalf("open B: %v", err)
	}

	if err := Lock(a); err != nil {
		t.Fatalf("A Lock: %v", err)
	}

	// B must see contention as a false result, never as an error.
	ok, err := TryLock(b)
	if err != nil {
		t.Fatalf("B TryLock: %v", err)
	}
	if ok {
		t.Fatal("B acquired the lock while A held it")
	}

	if err := Unlock(a); err != nil {
		t.Fatalf("A Unlock: %v", err)
	}
	Close(a)

	ok, err = TryLock(b)
	if err != nil {
		t.Fatalf("B TryLock after release: %v", err)
	}
	if !ok {
		t.Fatal("B could not acquire the lock after A released it")
	}

	if err := Unlock(b); err != nil {
		t.Fatalf("B Unlock: %v", err)
	}
	Close(b)
}

func TestBlockingLock(t *testing.T) {
	path := lockPath(t)

	a, err := Open(NewPath(path))
	if err != nil {
		t.Fatal(err)
	}
	b, err := Open(NewPath(path))
	if err != nil {
		t.Fatal(err)
	}
	defer Close(b)

	if ok, err := TryLock(a); err != nil || !ok {
		t.Fatalf("A TryLock = %v, %v", ok, err)
	}

	acquired := make(chan error, 1)
	go func() {
		acquired <- Lock(b)
	}()

	// B must still be blocked while A holds the lock.
	select {
	case err := <-acquired:
		t.Fatalf("B returned (%v) while A held the lock", err)
	case <-time.After(100 * time.Millisecond):
	}

	if err := Unlock(a); err != nil {
		t.Fatalf("A Unlock: %v", err)
	}
	Close(a)

	select {
	case err := <-acquired:
		if err != nil {
			t.Fatalf("B Lock: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("B did not acquire the lock after A released it")
	}

	if err := Unlock(b); err != nil {
		t.Fatalf("B Unlock: %v", err)
	}
}

func TestLockErrorOnClosedHandle(t *testing.T) {
	path := lockPath(t)

	h, err := Open(NewPath(path))
	if err != nil {
		t.Fatal(err)
	}
	Close(h)

	// Anything other than contention must surface as an error.
	if _, err := TryLock(h); err == nil {
		t.Error("TryLock on a closed handle should fail")
	}
	if err := Lock(h); err == nil {
		t.Error("Lock on a closed handle should fail")
	}
}

func TestRemove(t *testing.T) {
	path := lockPath(t)

	h, err := Open(NewPath(path))
	if err != nil {
		t.Fatal(err)
	}
	Close(h)

	if err := Remove(NewPath(path)); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("file still present after Remove: %v", err)
	}

	// Removing a missing file surfaces the OS not-found status.
	err = Remove(NewPath(path))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("second Remove = %v, want not-exist", err)
	}
}

// ///////////////////////////////////////////////
// LockFile
// ///////////////////////////////////////////////

func TestLockFileFlow(t *testing.T) {
	path := lockPath(t)

	l, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if l.Locked() {
		t.Error("fresh LockFile reports locked")
	}
	if l.Path() != path {
		t.Errorf("Path = %q, want %q", l.Path(), path)
	}

	ok, err := l.TryLock()
	if err != nil || !ok {
		t.Fatalf("TryLock = %v, %v", ok, err)
	}
	if !l.Locked() {
		t.Error("Locked false after acquisition")
	}

	if err := l.Unlock(); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	if l.Locked() {
		t.Error("Locked true after Unlock")
	}

	// The same LockFile can lock again after unlocking.
	if err := l.Lock(); err != nil {
		t.Fatalf("re-Lock: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestLockFileCloseReleasesLock(t *testing.T) {
	path := lockPath(t)

	a, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	if ok, err := a.TryLock(); err != nil || !ok {
		t.Fatalf("A TryLock = %v, %v", ok, err)
	}

	// Close without an explicit Unlock must still release the lock.
	if err := a.Close(); err != nil {
		t.Fatalf("A Close: %v", err)
	}

	b, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()
	if ok, err := b.TryLock(); err != nil || !ok {
		t.Fatalf("B TryLock after A Close = %v, %v", ok, err)
	}
}

func TestLockFilePanicsOnMisuse(t *testing.T) {
	path := lockPath(t)

	l, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	assertPanics := func(name string, fn func()) {
		t.Helper()
		defer func() {
			if recover() == nil {
				t.Errorf("%s: expected panic", name)
			}
		}()
		fn()
	}

	assertPanics("Unlock while unlocked", func() { l.Unlock() })

	if ok, err := l.TryLock(); err != nil || !ok {
		t.Fatalf("TryLock = %v, %v", ok, err)
	}
	assertPanics("Lock while locked", func() { l.Lock() })
	assertPanics("TryLock while locked", func() { l.TryLock() })
}

func TestLockContext(t *testing.T) {
	path := lockPath(t)

	a, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	if ok, err := a.TryLock(); err != nil || !ok {
		t.Fatalf("A TryLock = %v, %v", ok, err)
	}

	b, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	err = b.LockContext(ctx, 10*time.Millisecond)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("LockContext while held = %v, want deadline exceeded", err)
	}
	if b.Locked() {
		t.Error("B reports locked after failed LockContext")
	}

	if err := a.Close(); err != nil {
		t.Fatal(err)
	}

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	if err := b.LockContext(ctx2, 10*time.Millisecond); err != nil {
		t.Fatalf("LockContext after release: %v", err)
	}
}

func TestLockFileWriteString(t *testing.T) {
	path := lockPath(t)

	l, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	if ok, err := l.TryLock(); err != nil || !ok {
		t.Fatalf("TryLock = %v, %v", ok, err)
	}

	if err := l.WriteString("12345\n"); err != nil {
		t.Fatalf("WriteString: %v", err)
	}
	// A shorter rewrite must truncate, not leave a tail behind.
	if err := l.WriteString("7\n"); err != nil {
		t.Fatalf("second WriteString: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "7\n" {
		t.Errorf("content = %q, want %q", got, "7\n")
	}
}
