package runner

import (
	"errors"
	"strings"
	"testing"
)

func TestAnnotate_PreservesKind(t *testing.T) {
	f := &Failure{Kind: KindTimeout, Command: Argv("make")}
	got := Annotate(f, []byte("partial"))
	if got.Kind != KindTimeout {
		t.Errorf("Kind = %q, want %q", got.Kind, KindTimeout)
	}
	if string(got.Output) != "partial" {
		t.Errorf("Output = %q, want %q", got.Output, "partial")
	}
}

func TestFailure_Error_NoOutput(t *testing.T) {
	f := &Failure{Kind: KindNonZeroExit, Command: Argv("make"), ExitCode: 2}
	if !strings.Contains(f.Error(), "No output was generated.") {
		t.Errorf("Error() = %q, want no-output note", f.Error())
	}
}

func TestFailure_Error_InvalidUTF8(t *testing.T) {
	f := Annotate(&Failure{Kind: KindNonZeroExit, Command: Argv("make"), ExitCode: 2},
		[]byte{0xff, 0xfe, 0xfd})
	if !strings.Contains(f.Error(), "Failed to parse output.") {
		t.Errorf("Error() = %q, want parse-failure note", f.Error())
	}
}

func TestFailure_Error_LinePrefixed(t *testing.T) {
	f := Annotate(&Failure{Kind: KindNonZeroExit, Command: Argv("make"), ExitCode: 2},
		[]byte("first\nsecond"))
	msg := f.Error()
	if !strings.Contains(msg, "Captured output:") {
		t.Errorf("Error() = %q, want captured-output heading", msg)
	}
	if !strings.Contains(msg, "\n    first\n    second") {
		t.Errorf("Error() = %q, want each line prefixed", msg)
	}
}

func TestFailure_Error_MentionsDir(t *testing.T) {
	f := &Failure{Kind: KindNonZeroExit, Command: Argv("make"), ExitCode: 2, Dir: "/work/build"}
	if !strings.Contains(f.Error(), `"/work/build"`) {
		t.Errorf("Error() = %q, want working directory", f.Error())
	}
}

func TestFailure_Unwrap(t *testing.T) {
	underlying := errors.New("boom")
	f := &Failure{Kind: KindSpawnPermanent, Command: Argv("make"), Err: underlying}
	if !errors.Is(f, underlying) {
		t.Error("errors.Is does not reach the underlying error")
	}
}
