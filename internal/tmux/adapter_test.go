package tmux

import (
	"errors"
	"strings"
	"testing"
)

type fakeExec struct {
	outputs map[string]string
	errs    map[string]error
	calls   [][]string
}

func newFakeExec() *fakeExec {
	return &fakeExec{outputs: map[string]string{}, errs: map[string]error{}}
}

func key(name string, args []string) string {
	return name + " " + strings.Join(args, " ")
}

func (f *fakeExec) Output(name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	k := key(name, args)
	if err, ok := f.errs[k]; ok {
		return nil, err
	}
	return []byte(f.outputs[k]), nil
}

func (f *fakeExec) Run(name string, args ...string) error {
	f.calls = append(f.calls, append([]string{name}, args...))
	return f.errs[key(name, args)]
}

func TestAdapter_HasSession(t *testing.T) {
	fe := newFakeExec()
	a := NewAdapter(fe, "/tmp/sock")
	ok, err := a.HasSession("main")
	if err != nil || !ok {
		t.Fatalf("expected session to exist, got ok=%v err=%v", ok, err)
	}

	fe.errs[key("tmux", []string{"-S", "/tmp/sock", "has-session", "-t", "missing"})] = errors.New("no such session")
	ok, err = a.HasSession("missing")
	if err != nil || ok {
		t.Fatalf("expected session to be absent, got ok=%v err=%v", ok, err)
	}
}

func TestAdapter_ListWindows(t *testing.T) {
	fe := newFakeExec()
	fe.outputs[key("tmux", []string{"-S", "/tmp/sock", "list-windows", "-t", "main", "-F", "#{window_index}\t#{window_name}"})] = "0\tshell\n1\tbuild\n"
	a := NewAdapter(fe, "/tmp/sock")
	windows, err := a.ListWindows("main")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(windows) != 2 || windows[1].Name != "build" || windows[1].Index != 1 {
		t.Fatalf("unexpected windows: %+v", windows)
	}
}

func TestAdapter_WithoutSocket(t *testing.T) {
	fe := newFakeExec()
	a := NewAdapter(fe, "")
	_ = a.Interrupt("main:0.0")
	if len(fe.calls) != 1 || fe.calls[0][1] == "-S" {
		t.Fatalf("expected no -S flag when socket is empty, got %v", fe.calls)
	}
}
