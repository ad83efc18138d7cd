// SPDX-License-Identifier: MPL-2.0

package compat

import (
	"errors"
	"slices"
	"strings"
	"testing"
)

func TestLookup(t *testing.T) {
	t.Parallel()

	tests := []struct {
		codename   string
		wantMajor  int
		wantUbuntu string
		wantFlat   string
		wantTitle  string
	}{
		{codename: "noetic", wantMajor: 1, wantUbuntu: "20.04", wantFlat: "ubuntu2004", wantTitle: "ROS 1 Noetic"},
		{codename: "humble", wantMajor: 2, wantUbuntu: "22.04", wantFlat: "ubuntu2204", wantTitle: "ROS 2 Humble"},
		{codename: "iron", wantMajor: 2, wantUbuntu: "22.04", wantFlat: "ubuntu2204", wantTitle: "ROS 2 Iron"},
		{codename: "jazzy", wantMajor: 2, wantUbuntu: "24.04", wantFlat: "ubuntu2404", wantTitle: "ROS 2 Jazzy"},
	}

	for _, tt := range tests {
		t.Run(tt.codename, func(t *testing.T) {
			t.Parallel()

			d, err := Lookup(tt.codename)
			if err != nil {
				t.Fatalf("Lookup(%q) unexpected error: %v", tt.codename, err)
			}
			if d.Major != tt.wantMajor {
				t.Errorf("Major = %d, want %d", d.Major, tt.wantMajor)
			}
			if got := d.Ubuntu.String(); got != tt.wantUbuntu {
				t.Errorf("Ubuntu.String() = %q, want %q", got, tt.wantUbuntu)
			}
			if got := d.Ubuntu.Flat(); got != tt.wantFlat {
				t.Errorf("Ubuntu.Flat() = %q, want %q", got, tt.wantFlat)
			}
			if got := d.Title(); got != tt.wantTitle {
				t.Errorf("Title() = %q, want %q", got, tt.wantTitle)
			}
		})
	}
}

func TestLookup_Unsupported(t *testing.T) {
	t.Parallel()

	_, err := Lookup("melodic")
	if !errors.Is(err, ErrUnsupportedDistro) {
		t.Fatalf("Lookup(melodic) error = %v, want ErrUnsupportedDistro", err)
	}
	want := "ROS version 'melodic' not supported. Supported are [noetic humble iron jazzy]"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if IsSupported("melodic") {
		t.Error("IsSupported(melodic) = true")
	}
}

func TestDistrosOrderedByRelease(t *testing.T) {
	t.Parallel()

	ds := Distros()
	for i := 1; i < len(ds); i++ {
		if !ds[i-1].Released.Before(ds[i].Released) {
			t.Errorf("%s released after %s", ds[i-1].Codename, ds[i].Codename)
		}
	}

	// mutating the copy must not leak into the table
	ds[0].Codename = "changed"
	if Codenames()[0] != "noetic" {
		t.Error("Distros() returned the backing slice")
	}
}

func TestCodenamesByMajor(t *testing.T) {
	t.Parallel()

	if got := CodenamesByMajor(1); !slices.Equal(got, []string{"noetic"}) {
		t.Errorf("CodenamesByMajor(1) = %v", got)
	}
	if got := CodenamesByMajor(2); !slices.Equal(got, []string{"humble", "iron", "jazzy"}) {
		t.Errorf("CodenamesByMajor(2) = %v", got)
	}
}

func TestUbuntuVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    UbuntuVersion
		wantErr bool
	}{
		{in: "22.04", want: Ubuntu2204},
		{in: "24.04", want: Ubuntu2404},
		{in: "23.10", want: UbuntuVersion{Major: 23, Minor: 10}},
		{in: "22", wantErr: true},
		{in: "x.04", wantErr: true},
		{in: "22.y", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := ParseUbuntuVersion(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseUbuntuVersion(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("ParseUbuntuVersion(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}

	if !Ubuntu2404.After(UbuntuVersion{Major: 23, Minor: 10}) {
		t.Error("24.04 should be after 23.10")
	}
	if !(UbuntuVersion{Major: 23, Minor: 10}).After(Ubuntu2304) {
		t.Error("23.10 should be after 23.04")
	}
	if !(UbuntuVersion{Major: 14, Minor: 4}).Before(Ubuntu1604) {
		t.Error("14.04 should be before 16.04")
	}
	if Ubuntu2204.Compare(Ubuntu2204) != 0 {
		t.Error("22.04 should equal itself")
	}
}

func TestCompareVersions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b string
		want int
	}{
		{a: "12.4.1", b: "12.4.1", want: 0},
		{a: "12.4", b: "12.4.0", want: 0},
		{a: "11.8.0", b: "12.1.1", want: -1},
		{a: "12.10.0", b: "12.9.0", want: 1},
		{a: "9.5.1", b: "8.9.7", want: 1},
	}

	for _, tt := range tests {
		if got := CompareVersions(tt.a, tt.b); got != tt.want {
			t.Errorf("CompareVersions(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestNvidiaTablesDecode(t *testing.T) {
	t.Parallel()

	tbl, err := loadTables()
	if err != nil {
		t.Fatalf("embedded NVIDIA tables do not validate: %v", err)
	}
	if len(tbl.CUDA) == 0 || len(tbl.CUDNN) == 0 {
		t.Fatal("embedded NVIDIA tables are empty")
	}

	// every cuDNN entry must reference a CUDA release shipped for the same Ubuntu
	for cudnn, byUbuntu := range tbl.CUDNN {
		for ubuntu, entry := range byUbuntu {
			for _, cuda := range entry.CUDAVersions {
				if _, ok := CUDA(cuda, ubuntu); !ok {
					t.Errorf("cuDNN %s on %s references CUDA %s which is not in the CUDA table", cudnn, ubuntu, cuda)
				}
			}
		}
	}
}

func TestCUDA(t *testing.T) {
	t.Parallel()

	entry, ok := CUDA("12.4.1", "ubuntu2204")
	if !ok {
		t.Fatal("CUDA(12.4.1, ubuntu2204) not found")
	}
	if entry.Cudart != "12.4.127-1" {
		t.Errorf("Cudart = %q", entry.Cudart)
	}
	if !strings.HasPrefix(entry.NvidiaRequireCUDA, "cuda>=12.4 ") {
		t.Errorf("NvidiaRequireCUDA = %q", entry.NvidiaRequireCUDA)
	}

	if _, ok := CUDA("12.6.3", "ubuntu2004"); ok {
		t.Error("CUDA 12.6.3 should not exist for ubuntu2004")
	}

	_, err := LookupCUDA("10.2", "ubuntu2404")
	var cudaErr *UnsupportedCUDAError
	if !errors.As(err, &cudaErr) {
		t.Fatalf("LookupCUDA() error = %v, want *UnsupportedCUDAError", err)
	}
	if !slices.Equal(cudaErr.Supported, []string{"12.6.3"}) {
		t.Errorf("Supported = %v, want [12.6.3]", cudaErr.Supported)
	}
}

func TestSupportedCUDA(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ubuntu string
		want   []string
	}{
		{ubuntu: "ubuntu2004", want: []string{"11.8.0", "12.1.1", "12.4.1"}},
		{ubuntu: "ubuntu2204", want: []string{"11.8.0", "12.1.1", "12.4.1", "12.6.3"}},
		{ubuntu: "ubuntu2404", want: []string{"12.6.3"}},
		{ubuntu: "ubuntu1804", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.ubuntu, func(t *testing.T) {
			t.Parallel()

			if got := SupportedCUDA(tt.ubuntu); !slices.Equal(got, tt.want) {
				t.Errorf("SupportedCUDA(%s) = %v, want %v", tt.ubuntu, got, tt.want)
			}
		})
	}
}

func TestCUDNN(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cudnn   string
		cuda    string
		ubuntu  string
		wantPin string
		wantErr bool
	}{
		{name: "cudnn8 on humble", cudnn: "8.9.7", cuda: "12.4.1", ubuntu: "ubuntu2204", wantPin: "libcudnn8=8.9.7.29-1+cuda12.2"},
		{name: "cudnn9 on jazzy", cudnn: "9.5.1", cuda: "12.6.3", ubuntu: "ubuntu2404", wantPin: "libcudnn9-cuda-12=9.5.1.17-1"},
		{name: "wrong cuda", cudnn: "8.6.0", cuda: "12.4.1", ubuntu: "ubuntu2204", wantErr: true},
		{name: "wrong ubuntu", cudnn: "9.5.1", cuda: "12.6.3", ubuntu: "ubuntu2004", wantErr: true},
		{name: "unknown", cudnn: "7.0.0", cuda: "12.4.1", ubuntu: "ubuntu2204", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			entry, err := CUDNN(tt.cudnn, tt.cuda, tt.ubuntu)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedCUDNN) {
					t.Fatalf("CUDNN() error = %v, want ErrUnsupportedCUDNN", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("CUDNN() unexpected error: %v", err)
			}
			if got := entry.Pin(); got != tt.wantPin {
				t.Errorf("Pin() = %q, want %q", got, tt.wantPin)
			}
			if !strings.Contains(entry.DevPin(), "-dev") {
				t.Errorf("DevPin() = %q, want a dev package", entry.DevPin())
			}
		})
	}
}

func TestSupportedCUDNN_FiltersByCUDA(t *testing.T) {
	t.Parallel()

	tests := []struct {
		cuda   string
		ubuntu string
		want   []string
	}{
		{cuda: "11.8.0", ubuntu: "ubuntu2204", want: []string{"8.6.0"}},
		{cuda: "12.4.1", ubuntu: "ubuntu2204", want: []string{"8.9.7", "9.1.0"}},
		{cuda: "12.6.3", ubuntu: "ubuntu2404", want: []string{"9.5.1"}},
		{cuda: "12.1.1", ubuntu: "ubuntu2404", want: nil},
	}

	for _, tt := range tests {
		if got := SupportedCUDNN(tt.cuda, tt.ubuntu); !slices.Equal(got, tt.want) {
			t.Errorf("SupportedCUDNN(%s, %s) = %v, want %v", tt.cuda, tt.ubuntu, got, tt.want)
		}
	}
}

func TestCUDAVersionForms(t *testing.T) {
	t.Parallel()

	if got := CUDAPackageSuffix("12.4.1"); got != "12-4" {
		t.Errorf("CUDAPackageSuffix(12.4.1) = %q", got)
	}
	if got := CUDAShort("11.8.0"); got != "11.8" {
		t.Errorf("CUDAShort(11.8.0) = %q", got)
	}
	if got := CUDAShort("12"); got != "12" {
		t.Errorf("CUDAShort(12) = %q", got)
	}
}
