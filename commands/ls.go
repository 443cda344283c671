package commands

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	fcolor "github.com/fatih/color"
	"josephlewis.net/vsh/core/vos"
)

// Ls implements the UNIX ls command against the virtual filesystem.
func Ls(virtOS vos.VOS) int {
	cmd := &SimpleCommand{
		Use:   "ls [-alF1] [FILE]...",
		Short: "List information about the FILEs (the current directory by default).",
	}

	opt := cmd.Flags()
	listAll := opt.Bool('a', "don't ignore entries starting with .")
	longListing := opt.Bool('l', "use a long listing format")
	classify := opt.Bool('F', "append / to directories")
	onePerLine := opt.Bool('1', "list one file per line")

	var color ColorPrinter
	color.Init(opt, virtOS)

	return cmd.Run(virtOS, func() int {
		targets := opt.Args()
		if len(targets) == 0 {
			targets = append(targets, ".")
		}
		sort.Strings(targets)
		showNames := len(targets) > 1

		exitCode := 0
		for _, target := range targets {
			file, err := virtOS.Open(target)
			if err != nil {
				fmt.Fprintf(virtOS.Stderr(), "ls: %s: no such file or directory\n", target)
				exitCode = 1
				continue
			}
			entries, err := file.Readdir(-1)
			file.Close()
			if err != nil {
				// A plain file lists as itself.
				info, statErr := virtOS.Stat(target)
				if statErr != nil {
					fmt.Fprintf(virtOS.Stderr(), "ls: %s: %v\n", target, err)
					exitCode = 1
					continue
				}
				entries = []os.FileInfo{info}
			}

			var shown []os.FileInfo
			var totalSize int64
			for _, entry := range entries {
				if !*listAll && strings.HasPrefix(entry.Name(), ".") {
					continue
				}
				shown = append(shown, entry)
				totalSize += entry.Size()
			}
			sort.Slice(shown, func(i, j int) bool {
				return shown[i].Name() < shown[j].Name()
			})

			if showNames {
				fmt.Fprintf(virtOS.Stdout(), "%s:\n", target)
			}

			display := func(entry os.FileInfo) string {
				name := color.Sprintf(lsColor(entry), "%s", entry.Name())
				if *classify && entry.IsDir() {
					name += "/"
				}
				return name
			}

			switch {
			case *longListing:
				fmt.Fprintf(virtOS.Stdout(), "total %d\n", totalSize)
				tw := tabwriter.NewWriter(virtOS.Stdout(), 0, 0, 1, ' ', 0)
				for _, entry := range shown {
					hardLinks := 1
					if entry.IsDir() {
						hardLinks = 2
					}
					fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%d\t%s\t%s\n",
						entry.Mode().String(),
						hardLinks,
						"root",
						"root",
						entry.Size(),
						entry.ModTime().Format("Jan _2 15:04"),
						display(entry))
				}
				tw.Flush()

			case *onePerLine:
				for _, entry := range shown {
					fmt.Fprintln(virtOS.Stdout(), display(entry))
				}

			default:
				for i, entry := range shown {
					if i > 0 {
						fmt.Fprint(virtOS.Stdout(), "  ")
					}
					fmt.Fprint(virtOS.Stdout(), display(entry))
				}
				if len(shown) > 0 {
					fmt.Fprintln(virtOS.Stdout())
				}
			}
		}
		return exitCode
	})
}

// lsColor picks the listing color: bold blue directories, bold green
// executables, default otherwise.
func lsColor(entry os.FileInfo) *fcolor.Color {
	switch {
	case entry.IsDir():
		return ColorBoldBlue
	case entry.Mode().Perm()&0111 > 0:
		return ColorBoldGreen
	default:
		return fcolor.New(fcolor.FgHiWhite)
	}
}

var _ vos.ProcessFunc = Ls

func init() {
	registerCommand(Ls, "ls")
}
