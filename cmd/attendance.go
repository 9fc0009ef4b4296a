package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/presence/internal/client"
)

var attendanceDate string

var attendanceCmd = &cobra.Command{
	Use:   "attendance",
	Short: "Show who was marked present on a given day",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := client.New(serverURL).Attendance(cmd.Context(), attendanceDate)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("No attendance records.")
			return nil
		}
		for _, r := range records {
			fmt.Printf("%s\t%s\n", r.Name, r.Time)
		}
		return nil
	},
}

var attendanceOnCmd = &cobra.Command{
	Use:   "on",
	Short: "Enable attendance marking",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := client.New(serverURL).SetAttendance(cmd.Context(), true); err != nil {
			return err
		}
		fmt.Println("Attendance marking enabled.")
		return nil
	},
}

var attendanceOffCmd = &cobra.Command{
	Use:   "off",
	Short: "Disable attendance marking without stopping the camera",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := client.New(serverURL).SetAttendance(cmd.Context(), false); err != nil {
			return err
		}
		fmt.Println("Attendance marking disabled.")
		return nil
	},
}

func init() {
	attendanceCmd.Flags().StringVar(&attendanceDate, "date", "", "Day to query in YYYY-MM-DD form (defaults to today)")
	attendanceCmd.AddCommand(attendanceOnCmd)
	attendanceCmd.AddCommand(attendanceOffCmd)
	rootCmd.AddCommand(attendanceCmd)
}
