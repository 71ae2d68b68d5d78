package chemfiles

import (
	"testing"

	"github.com/molcore/chemfiles/fileio"
)

func fakeFactory(file *fileio.File, mode fileio.Mode) (Format, error) {
	return nil, nil
}

func TestRegisterFormatRejectsDuplicateName(t *testing.T) {
	info := FactoryInfo{Name: "registry-test-dup-name"}
	if err := RegisterFormat(info, fakeFactory); err != nil {
		t.Fatal(err)
	}
	err := RegisterFormat(info, fakeFactory)
	if err == nil {
		t.Fatal("expected an error re-registering the same name")
	}
	if _, ok := err.(*FormatError); !ok {
		t.Fatalf("expected *FormatError, got %T: %v", err, err)
	}
}

func TestRegisterFormatRejectsDuplicateExtension(t *testing.T) {
	first := FactoryInfo{Name: "registry-test-ext-a", Extension: ".registrytest"}
	second := FactoryInfo{Name: "registry-test-ext-b", Extension: ".registrytest"}
	if err := RegisterFormat(first, fakeFactory); err != nil {
		t.Fatal(err)
	}
	err := RegisterFormat(second, fakeFactory)
	if err == nil {
		t.Fatal("expected an error re-registering the same extension")
	}
}

func TestMustRegisterFormatPanicsOnDuplicate(t *testing.T) {
	info := FactoryInfo{Name: "registry-test-panic"}
	MustRegisterFormat(info, fakeFactory)

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected MustRegisterFormat to panic on a duplicate name")
		}
	}()
	MustRegisterFormat(info, fakeFactory)
}

func TestDispatchByExplicitName(t *testing.T) {
	info := FactoryInfo{Name: "registry-test-by-name"}
	if err := RegisterFormat(info, fakeFactory); err != nil {
		t.Fatal(err)
	}

	rf, err := dispatch("irrelevant/path.xyz", "registry-test-by-name")
	if err != nil {
		t.Fatal(err)
	}
	if rf.info.Name != "registry-test-by-name" {
		t.Fatalf("dispatch() resolved %q, want registry-test-by-name", rf.info.Name)
	}
}

func TestDispatchByExtensionPrefersLongestMatch(t *testing.T) {
	short := FactoryInfo{Name: "registry-test-short-ext", Extension: ".dat"}
	long := FactoryInfo{Name: "registry-test-long-ext", Extension: ".special.dat"}
	if err := RegisterFormat(short, fakeFactory); err != nil {
		t.Fatal(err)
	}
	if err := RegisterFormat(long, fakeFactory); err != nil {
		t.Fatal(err)
	}

	rf, err := dispatch("traj.special.dat", "")
	if err != nil {
		t.Fatal(err)
	}
	if rf.info.Name != "registry-test-long-ext" {
		t.Fatalf("dispatch() resolved %q, want registry-test-long-ext (longest suffix)", rf.info.Name)
	}
}

func TestDispatchUnknownExtensionFails(t *testing.T) {
	_, err := dispatch("traj.registry-test-unknown-ext", "")
	if err == nil {
		t.Fatal("expected an error for an unregistered extension")
	}
	if _, ok := err.(*FormatError); !ok {
		t.Fatalf("expected *FormatError, got %T: %v", err, err)
	}
}

func TestDispatchUnknownNameFails(t *testing.T) {
	_, err := dispatch("anything", "registry-test-no-such-format")
	if err == nil {
		t.Fatal("expected an error for an unknown format name hint")
	}
}
