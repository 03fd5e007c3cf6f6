package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/openfluke/shuttle/detector"
	"github.com/openfluke/shuttle/gpu"
)

var probeJSON bool

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Show the adapter and host a kernel launch would use",
	RunE:  runProbe,
}

func init() {
	probeCmd.Flags().BoolVar(&probeJSON, "json", false, "print the full report as JSON")
	rootCmd.AddCommand(probeCmd)
}

func runProbe(cmd *cobra.Command, args []string) error {
	if !gpu.Available() {
		return fmt.Errorf("no usable WebGPU runtime on this system")
	}
	if err := initGPU(); err != nil {
		return err
	}

	rep, err := detector.Detect()
	if err != nil {
		return err
	}

	if probeJSON {
		s, err := detector.DetectJSON()
		if err != nil {
			return err
		}
		fmt.Println(s)
		return nil
	}

	fmt.Printf("Adapter:  %s (%s, %s)\n", rep.Name, rep.AdapterType, rep.Backend)
	fmt.Printf("Driver:   %s\n", rep.Driver)
	fmt.Printf("Limits:   workgroup <= %d invocations, storage binding <= %d bytes\n",
		rep.Limits.MaxComputeInvocationsPerWorkgroup, rep.Limits.MaxStorageBufferBindingSize)
	fmt.Printf("Suggest:  @workgroup_size(%d)\n", rep.Recommended.WorkgroupX)
	fmt.Printf("Host:     %s/%s, %d CPUs", rep.Host.OS, rep.Host.Arch, rep.Host.NumCPU)
	if len(rep.Host.Features) > 0 {
		fmt.Printf(" (%v)", rep.Host.Features)
	}
	fmt.Println()
	return nil
}

// initGPU applies the adapter selection from config before first use.
func initGPU() error {
	if idx := viper.GetInt("adapter"); idx >= 0 {
		return gpu.Init(gpu.WithAdapterIndex(idx))
	}
	return gpu.Init()
}
