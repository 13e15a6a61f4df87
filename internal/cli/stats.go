package cli

import (
	"net/url"

	"github.com/septivank/environment-monitor/internal/model"
	"github.com/spf13/cobra"
)

// DeviceStats counts registered devices
type DeviceStats struct {
	Total      int                        `json:"total"`
	ByProtocol map[model.Protocol]int     `json:"byProtocol"`
	ByStatus   map[model.DeviceStatus]int `json:"byStatus"`
}

// countDevices tallies devices by protocol and status
func countDevices(devices []model.Device) DeviceStats {
	stats := DeviceStats{
		Total:      len(devices),
		ByProtocol: map[model.Protocol]int{},
		ByStatus:   map[model.DeviceStatus]int{},
	}
	for _, d := range devices {
		stats.ByProtocol[d.Protocol]++
		stats.ByStatus[d.Status]++
	}
	return stats
}

func (a *app) statsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count devices by protocol and status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			devices, err := a.client().ListDevices(cmd.Context(), url.Values{})
			if err != nil {
				return err
			}
			return printJSON(cmd, countDevices(devices))
		},
	}
}
