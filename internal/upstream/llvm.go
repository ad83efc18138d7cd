// SPDX-License-Identifier: MPL-2.0

package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"slices"
	"strconv"
)

// LLVMScriptURL is the apt.llvm.org installer whose version table is parsed.
const LLVMScriptURL = "https://apt.llvm.org/llvm.sh"

const maxScriptBytes = 1 << 20

var (
	// ErrNoLLVMVersions is returned when llvm.sh lists no versions.
	ErrNoLLVMVersions = errors.New("no LLVM versions found in llvm.sh")

	llvmVersionPattern = regexp.MustCompile(`LLVM_VERSION_PATTERNS\[(\d+)\]="-(\d+)"`)
)

// FetchLLVMVersions downloads llvm.sh from scriptURL and returns the LLVM
// major versions it supports, in ascending order.
func FetchLLVMVersions(ctx context.Context, client *http.Client, scriptURL string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, scriptURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", scriptURL, err)
	}
	defer func() { _ = resp.Body.Close() }() // read-only response body

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: unexpected status %d", scriptURL, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxScriptBytes))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", scriptURL, err)
	}
	return ParseLLVMVersions(string(body))
}

// ParseLLVMVersions extracts the versions from the LLVM_VERSION_PATTERNS
// table of llvm.sh:
//
//	LLVM_VERSION_PATTERNS[18]="-18"
func ParseLLVMVersions(script string) ([]string, error) {
	var nums []int
	for _, m := range llvmVersionPattern.FindAllStringSubmatch(script, -1) {
		n, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		nums = append(nums, n)
	}
	if len(nums) == 0 {
		return nil, ErrNoLLVMVersions
	}
	slices.Sort(nums)
	nums = slices.Compact(nums)

	out := make([]string, 0, len(nums))
	for _, n := range nums {
		out = append(out, strconv.Itoa(n))
	}
	return out, nil
}
