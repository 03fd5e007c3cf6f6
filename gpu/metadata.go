package gpu

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// kernelMeta is what shuttle knows about a kernel beyond its compiled
// pipeline: declared bindings in group 0, the workgroup size, and whether
// the requested entry point exists. WebGPU exposes none of this back to the
// host, so it is read from the WGSL source itself.
type kernelMeta struct {
	argCount  int
	spaces    []string // address space per binding: "storage" or "uniform"
	workgroup [3]int
}

var (
	lineCommentRe  = regexp.MustCompile(`//[^\n]*`)
	blockCommentRe = regexp.MustCompile(`(?s)/\*.*?\*/`)
	bindingRe      = regexp.MustCompile(`@group\(\s*0\s*\)\s*@binding\(\s*(\d+)\s*\)\s*var\s*<\s*(uniform|storage)`)
	workgroupRe    = regexp.MustCompile(`@workgroup_size\(\s*(\d+)\s*(?:,\s*(\d+)\s*)?(?:,\s*(\d+)\s*)?\)`)
)

// scanKernel extracts binding and workgroup metadata for one entry point.
// Bindings must be contiguous from 0; that order is the positional argument
// order of every invocation.
func scanKernel(src, entry string) (*kernelMeta, error) {
	clean := blockCommentRe.ReplaceAllString(src, "")
	clean = lineCommentRe.ReplaceAllString(clean, "")

	entryRe, err := regexp.Compile(`fn\s+` + regexp.QuoteMeta(entry) + `\s*\(`)
	if err != nil {
		return nil, err
	}
	if !entryRe.MatchString(clean) {
		return nil, fmt.Errorf("entry point %q not found", entry)
	}

	seen := map[int]string{}
	for _, m := range bindingRe.FindAllStringSubmatch(clean, -1) {
		idx, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[idx]; dup && prev != m[2] {
			return nil, fmt.Errorf("binding %d declared twice with different address spaces", idx)
		}
		seen[idx] = m[2]
	}

	indices := make([]int, 0, len(seen))
	for idx := range seen {
		indices = append(indices, idx)
	}
	sort.Ints(indices)
	for i, idx := range indices {
		if idx != i {
			return nil, fmt.Errorf("bindings not contiguous: missing @binding(%d)", i)
		}
	}

	meta := &kernelMeta{
		argCount:  len(indices),
		spaces:    make([]string, len(indices)),
		workgroup: [3]int{1, 1, 1},
	}
	for i := range indices {
		meta.spaces[i] = seen[i]
	}

	if m := workgroupRe.FindStringSubmatch(clean); m != nil {
		for d := 0; d < 3; d++ {
			if strings.TrimSpace(m[d+1]) == "" {
				break
			}
			v, err := strconv.Atoi(m[d+1])
			if err != nil || v <= 0 {
				return nil, fmt.Errorf("bad @workgroup_size component %q", m[d+1])
			}
			meta.workgroup[d] = v
		}
	}
	return meta, nil
}
