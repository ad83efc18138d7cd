// SPDX-License-Identifier: MPL-2.0

package compat

import (
	_ "embed"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/turlucode/turludock/pkg/cueutil"
)

var (
	//go:embed nvidia_schema.cue
	nvidiaSchema []byte

	//go:embed nvidia.cue
	nvidiaData []byte

	loadTables = sync.OnceValues(func() (*tables, error) {
		res, err := cueutil.ParseAndDecode[tables](nvidiaSchema, nvidiaData, "#Tables", cueutil.WithFilename("nvidia.cue"))
		if err != nil {
			return nil, err
		}
		return res.Value, nil
	})

	// ErrUnsupportedCUDA is the sentinel wrapped by UnsupportedCUDAError.
	ErrUnsupportedCUDA = errors.New("unsupported CUDA version")

	// ErrUnsupportedCUDNN is the sentinel wrapped by UnsupportedCUDNNError.
	ErrUnsupportedCUDNN = errors.New("unsupported cuDNN version")
)

type (
	// CUDAEntry holds the apt pins for one CUDA release on one Ubuntu release.
	CUDAEntry struct {
		NvidiaRequireCUDA string `json:"nvidia_require_cuda"`
		Cudart            string `json:"cudart"`
		Compat            string `json:"compat"`
		CUDALib           string `json:"cuda_lib"`
		NVML              string `json:"nvml"`
		NVProf            string `json:"nvprof"`
		NVTX              string `json:"nvtx"`
		LibNPP            string `json:"libnpp"`
		LibCusparse       string `json:"libcusparse"`
		LibCublas         string `json:"libcublas"`
		LibNCCL           string `json:"libnccl"`
		NsightCompute     string `json:"nsight_compute"`
	}

	// CUDNNEntry holds the apt pins for one cuDNN release on one Ubuntu release.
	CUDNNEntry struct {
		// CUDAVersions lists the CUDA releases this cuDNN build supports.
		CUDAVersions []string `json:"cuda_version"`
		Package      string   `json:"libcudnn_package"`
		DevPackage   string   `json:"libcudnn_dev_package"`
		Version      string   `json:"libcudnn_version"`
		Revision     string   `json:"libcudnn_revision"`
	}

	// UnsupportedCUDAError reports a CUDA version missing for an Ubuntu release.
	UnsupportedCUDAError struct {
		Version   string
		Ubuntu    string
		Supported []string
	}

	// UnsupportedCUDNNError reports a cuDNN version that is missing for an
	// Ubuntu release or incompatible with the selected CUDA version.
	UnsupportedCUDNNError struct {
		Version   string
		CUDA      string
		Ubuntu    string
		Supported []string
	}

	tables struct {
		CUDA  map[string]map[string]CUDAEntry  `json:"cuda"`
		CUDNN map[string]map[string]CUDNNEntry `json:"cudnn"`
	}
)

// Error implements the error interface.
func (e *UnsupportedCUDAError) Error() string {
	return fmt.Sprintf("CUDA version '%s' not supported for %s. Supported are %v", e.Version, e.Ubuntu, e.Supported)
}

// Unwrap returns ErrUnsupportedCUDA for errors.Is() compatibility.
func (e *UnsupportedCUDAError) Unwrap() error { return ErrUnsupportedCUDA }

// Error implements the error interface.
func (e *UnsupportedCUDNNError) Error() string {
	return fmt.Sprintf("cuDNN version '%s' not supported for CUDA %s on %s. Supported are %v",
		e.Version, e.CUDA, e.Ubuntu, e.Supported)
}

// Unwrap returns ErrUnsupportedCUDNN for errors.Is() compatibility.
func (e *UnsupportedCUDNNError) Unwrap() error { return ErrUnsupportedCUDNN }

// Pin returns the "package=version-revision" apt pin for the runtime package.
func (e CUDNNEntry) Pin() string {
	return fmt.Sprintf("%s=%s-%s", e.Package, e.Version, e.Revision)
}

// DevPin returns the "package=version-revision" apt pin for the dev package.
func (e CUDNNEntry) DevPin() string {
	return fmt.Sprintf("%s=%s-%s", e.DevPackage, e.Version, e.Revision)
}

// CUDA returns the pins for a CUDA version on an Ubuntu release ("ubuntu2204").
func CUDA(version, ubuntuFlat string) (CUDAEntry, bool) {
	t, err := loadTables()
	if err != nil {
		return CUDAEntry{}, false
	}
	entry, ok := t.CUDA[version][ubuntuFlat]
	return entry, ok
}

// LookupCUDA is CUDA with a typed error listing the supported versions.
func LookupCUDA(version, ubuntuFlat string) (CUDAEntry, error) {
	if _, err := loadTables(); err != nil {
		return CUDAEntry{}, err
	}
	entry, ok := CUDA(version, ubuntuFlat)
	if !ok {
		return CUDAEntry{}, &UnsupportedCUDAError{Version: version, Ubuntu: ubuntuFlat, Supported: SupportedCUDA(ubuntuFlat)}
	}
	return entry, nil
}

// SupportedCUDA lists the CUDA versions available for an Ubuntu release,
// oldest first.
func SupportedCUDA(ubuntuFlat string) []string {
	t, err := loadTables()
	if err != nil {
		return nil
	}
	var out []string
	for version, byUbuntu := range t.CUDA {
		if _, ok := byUbuntu[ubuntuFlat]; ok {
			out = append(out, version)
		}
	}
	slices.SortFunc(out, CompareVersions)
	return out
}

// CUDNN returns the pins for a cuDNN version on an Ubuntu release. The entry
// must also list cuda as a compatible CUDA version.
func CUDNN(cudnn, cuda, ubuntuFlat string) (CUDNNEntry, error) {
	t, err := loadTables()
	if err != nil {
		return CUDNNEntry{}, err
	}
	entry, ok := t.CUDNN[cudnn][ubuntuFlat]
	if !ok || !slices.Contains(entry.CUDAVersions, cuda) {
		return CUDNNEntry{}, &UnsupportedCUDNNError{
			Version:   cudnn,
			CUDA:      cuda,
			Ubuntu:    ubuntuFlat,
			Supported: SupportedCUDNN(cuda, ubuntuFlat),
		}
	}
	return entry, nil
}

// SupportedCUDNN lists the cuDNN versions available for an Ubuntu release
// that are compatible with cuda, oldest first.
func SupportedCUDNN(cuda, ubuntuFlat string) []string {
	t, err := loadTables()
	if err != nil {
		return nil
	}
	var out []string
	for version := range maps.Keys(t.CUDNN) {
		entry, ok := t.CUDNN[version][ubuntuFlat]
		if ok && slices.Contains(entry.CUDAVersions, cuda) {
			out = append(out, version)
		}
	}
	slices.SortFunc(out, CompareVersions)
	return out
}

// CUDAPackageSuffix turns "12.4.1" into the "12-4" suffix NVIDIA uses in
// package names such as cuda-cudart-12-4.
func CUDAPackageSuffix(version string) string {
	major, rest, _ := strings.Cut(version, ".")
	minor, _, _ := strings.Cut(rest, ".")
	if minor == "" {
		return major
	}
	return major + "-" + minor
}

// CUDAShort turns "12.4.1" into "12.4".
func CUDAShort(version string) string {
	major, rest, _ := strings.Cut(version, ".")
	minor, _, _ := strings.Cut(rest, ".")
	if minor == "" {
		return major
	}
	return major + "." + minor
}

