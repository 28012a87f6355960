package cli

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/aviary-e2e/pkg/cases"
	"github.com/devicelab-dev/aviary-e2e/pkg/core"
	"github.com/devicelab-dev/aviary-e2e/pkg/suite"
)

var casesCommand = &cli.Command{
	Name:  "cases",
	Usage: "List registered cases in execution order",
	Flags: []cli.Flag{
		&cli.StringSliceFlag{
			Name:    "group",
			Aliases: []string{"g"},
			Usage:   "Only list these groups (smoke, navigation, functional)",
		},
	},
	Action: listCases,
}

func listCases(c *cli.Context) error {
	selected, err := filterCases(cases.All(), c.StringSlice("group"), nil)
	if err != nil {
		return err
	}
	ordered, err := suite.Order(selected)
	if err != nil {
		return err
	}

	fmt.Printf("%-5s %-48s %-12s %s\n", "ID", "Name", "Group", "Disposition")
	fmt.Println(strings.Repeat("─", 96))
	for _, cs := range ordered {
		fmt.Printf("%-5s %-48s %-12s %s\n", cs.ID, cs.Name, cs.Group, describeDisposition(cs.Disposition))
	}
	fmt.Printf("\n%d cases\n", len(ordered))
	return nil
}

func describeDisposition(d core.Disposition) string {
	if d.Kind == core.DispositionRun {
		return "run"
	}
	if d.Reason != "" {
		return fmt.Sprintf("%s (%s)", d.Kind, d.Reason)
	}
	return d.Kind.String()
}
