package main

import (
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"grledger/internal/core"
	"grledger/internal/ledger"
	"grledger/internal/media"
)

func usersCommand(current func() *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage dashboard users",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tUSERNAME\tROLE\tCREATED")
			for _, u := range current().app.Users() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", u.ID, u.Username, u.Role, u.CreatedAt.Format("2006-01-02 15:04"))
			}
			return tw.Flush()
		},
	})

	var (
		password  string
		role      string
		photoFile string
	)
	add := &cobra.Command{
		Use:   "add <username>",
		Short: "Create a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var photo string
			if photoFile != "" {
				raw, err := os.ReadFile(photoFile)
				if err != nil {
					return fmt.Errorf("read photo: %w", err)
				}
				photo = media.Encode(http.DetectContentType(raw), raw)
			}
			res, err := current().app.Dispatch(cmd.Context(), ledger.AddUser{
				Username: args[0],
				Password: password,
				Role:     core.Role(role),
				Photo:    photo,
			})
			if err != nil {
				return err
			}
			warnIfUnsaved(res)
			fmt.Fprintln(cmd.OutOrStdout(), res.ID)
			return nil
		},
	}
	add.Flags().StringVar(&password, "password", "", "Initial password (required)")
	add.Flags().StringVar(&role, "role", string(core.RoleUser), "Role: admin or user")
	add.Flags().StringVar(&photoFile, "photo", "", "Profile photo image file")
	_ = add.MarkFlagRequired("password")
	cmd.AddCommand(add)

	var yes bool
	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := current().app.Dispatch(cmd.Context(), ledger.DeleteUser{ID: args[0], Confirmed: yes})
			if err != nil {
				return err
			}
			warnIfUnsaved(res)
			return nil
		},
	}
	del.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm the deletion")
	cmd.AddCommand(del)

	return cmd
}
