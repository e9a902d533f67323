package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func configureCmd() *cobra.Command {
	var token string
	var facilityID string
	var timezone string

	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Write the CLI config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configFile
			if path == "" {
				p, err := defaultConfigPath()
				if err != nil {
					return err
				}
				path = p
			}
			current, err := loadConfig(path)
			if err != nil {
				return err
			}
			if baseURLFlag != "" {
				current.BaseURL = baseURLFlag
			}
			if facilityID != "" {
				current.DefaultFacility = facilityID
			}
			if timezone != "" {
				current.Timezone = timezone
			}

			if token == "" && term.IsTerminal(int(os.Stdin.Fd())) {
				fmt.Fprint(os.Stderr, "Access token (leave empty to keep current): ")
				raw, err := term.ReadPassword(int(os.Stdin.Fd()))
				fmt.Fprintln(os.Stderr)
				if err != nil {
					return err
				}
				token = strings.TrimSpace(string(raw))
			} else if token == "-" {
				line, err := bufio.NewReader(os.Stdin).ReadString('\n')
				if err != nil && line == "" {
					return err
				}
				token = strings.TrimSpace(line)
			}
			if token != "" {
				current.Token = token
			}

			if err := saveConfig(path, current); err != nil {
				return err
			}
			fmt.Fprintf(stdout, "Saved %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "Access token (\"-\" reads it from stdin)")
	cmd.Flags().StringVar(&facilityID, "facility", "", "Default facility id")
	cmd.Flags().StringVar(&timezone, "timezone", "", "Display timezone, e.g. Europe/Berlin")
	return cmd
}
