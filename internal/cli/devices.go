package cli

import (
	"fmt"
	"net/url"

	"github.com/septivank/environment-monitor/internal/api"
	"github.com/spf13/cobra"
)

var locationFlags = []string{"room", "department", "floor", "building"}

func (a *app) devicesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "devices",
		Short: "Manage registered devices",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List devices, optionally filtered",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			query := url.Values{}
			for _, name := range append([]string{"protocol", "status"}, locationFlags...) {
				if v, _ := cmd.Flags().GetString(name); v != "" {
					query.Set(name, v)
				}
			}
			devices, err := a.client().ListDevices(cmd.Context(), query)
			if err != nil {
				return err
			}
			return printJSON(cmd, devices)
		},
	}
	list.Flags().String("protocol", "", "MQTT, GRPC or REST")
	list.Flags().String("status", "", "ACTIVE or INACTIVE")
	addLocationFlags(list)

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			device, err := a.client().GetDevice(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, device)
		},
	}

	create := &cobra.Command{
		Use:   "create <id>",
		Short: "Register a device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := deviceRequest(cmd)
			req.ID = args[0]
			device, err := a.client().CreateDevice(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd, device)
		},
	}
	addDeviceFlags(create)

	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Replace protocol, location and status of a device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			device, err := a.client().UpdateDevice(cmd.Context(), args[0], deviceRequest(cmd))
			if err != nil {
				return err
			}
			return printJSON(cmd, device)
		},
	}
	addDeviceFlags(update)

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a device; its metrics are kept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client().DeleteDevice(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(list, get, create, update, del)
	return cmd
}

func addLocationFlags(cmd *cobra.Command) {
	for _, name := range locationFlags {
		cmd.Flags().String(name, "", name+" of the device location")
	}
}

func addDeviceFlags(cmd *cobra.Command) {
	cmd.Flags().String("protocol", "", "MQTT, GRPC or REST")
	cmd.Flags().String("status", "", "ACTIVE or INACTIVE")
	addLocationFlags(cmd)
	_ = cmd.MarkFlagRequired("protocol")
	_ = cmd.MarkFlagRequired("room")
	_ = cmd.MarkFlagRequired("department")
	_ = cmd.MarkFlagRequired("building")
}

func deviceRequest(cmd *cobra.Command) api.DeviceRequest {
	get := func(name string) string {
		v, _ := cmd.Flags().GetString(name)
		return v
	}
	return api.DeviceRequest{
		Protocol:   get("protocol"),
		Room:       get("room"),
		Department: get("department"),
		Floor:      get("floor"),
		Building:   get("building"),
		Status:     get("status"),
	}
}
