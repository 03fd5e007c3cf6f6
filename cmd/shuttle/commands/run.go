package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openfluke/shuttle/gpu"
)

var (
	runKernel string
	runEntry  string
	runN      int
	runShow   int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Compile a single-buffer kernel and launch it once",
	Long: `Run compiles the given WGSL kernel, binds one zero-filled float array of
--n elements as its only argument (inout), launches over a grid rounded up
to the kernel's workgroup size, and prints the first elements written back.

The kernel must declare exactly one storage binding, like kernels/fill.wgsl.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runKernel, "kernel", "kernels/fill.wgsl", "WGSL kernel file")
	runCmd.Flags().StringVar(&runEntry, "entry", "main", "entry point name")
	runCmd.Flags().IntVar(&runN, "n", 1024, "element count")
	runCmd.Flags().IntVar(&runShow, "show", 8, "elements to print after the launch")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	if err := initGPU(); err != nil {
		return err
	}

	k, err := gpu.CompileFile(runKernel, runEntry)
	if err != nil {
		return err
	}

	arr, err := gpu.NewArray[float32](runN)
	if err != nil {
		return err
	}
	defer arr.Release()

	localX, _, _ := k.WorkgroupSize()
	global := gpu.RoundUp(localX, runN)
	if err := k.Invoke().InOut(arr).Run1D(global, localX); err != nil {
		return err
	}

	show := runShow
	if show > arr.Len() {
		show = arr.Len()
	}
	fmt.Printf("%s(%s) over %d elements (global %d, local %d):\n",
		runKernel, runEntry, runN, global, localX)
	for i := 0; i < show; i++ {
		fmt.Printf("  [%d] = %g\n", i, arr.At(i))
	}
	return nil
}
