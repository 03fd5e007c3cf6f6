package detector

import "testing"

func TestChooseWorkgroup(t *testing.T) {
	cases := []struct {
		maxX, maxTotal, want uint32
	}{
		{1024, 1024, 256},
		{256, 256, 256},
		{128, 256, 128},
		{256, 64, 64},
		{3, 3, 1},
	}
	for _, c := range cases {
		if got := chooseWorkgroup(c.maxX, c.maxTotal); got != c.want {
			t.Errorf("chooseWorkgroup(%d, %d) = %d, want %d", c.maxX, c.maxTotal, got, c.want)
		}
	}
}

func TestHostInfo(t *testing.T) {
	h := hostInfo()
	if h.OS == "" || h.Arch == "" {
		t.Error("host info missing OS/arch")
	}
	if h.NumCPU < 1 {
		t.Errorf("NumCPU = %d", h.NumCPU)
	}
}
