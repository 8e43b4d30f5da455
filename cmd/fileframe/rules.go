package main

import (
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/fileframe/internal/fileframe"
	"github.com/JonMunkholm/fileframe/internal/rules"
)

func newRulesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rules RULEFILE",
		Short: "Check a rule file and print it in normal form",
		Long: `Rules registers every rule of RULEFILE on an empty table, so duplicate and
conflicting rules are reported without reading any data, then prints the
accepted rules back as YAML.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rs, err := rules.LoadFile(args[0])
			if err != nil {
				return err
			}
			ff := fileframe.NewEmpty()
			if err := rs.Apply(ff); err != nil {
				return err
			}
			out, err := rules.FromDescriptors(ff.ConstraintDetails()).Marshal()
			if err != nil {
				return err
			}
			a.log().Debug("rules checked", "file", args[0], "constraints", len(ff.Constraints()))
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}
