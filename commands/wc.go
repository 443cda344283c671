package commands

import (
	"bufio"
	"fmt"
	"io"

	"josephlewis.net/vsh/core/vos"
)

type wcCounts struct {
	lines, words, bytes int
}

func countReader(r io.Reader) wcCounts {
	var c wcCounts
	reader := bufio.NewReader(r)
	inWord := false
	for {
		b, err := reader.ReadByte()
		if err != nil {
			break
		}
		c.bytes++
		switch b {
		case '\n':
			c.lines++
			inWord = false
		case ' ', '\t', '\r', '\v', '\f':
			inWord = false
		default:
			if !inWord {
				c.words++
				inWord = true
			}
		}
	}
	return c
}

// Wc implements the UNIX wc command.
func Wc(virtOS vos.VOS) int {
	cmd := &SimpleCommand{
		Use:   "wc [-lwc] [FILE]...",
		Short: "Print newline, word, and byte counts.",
	}

	opt := cmd.Flags()
	onlyLines := opt.Bool('l', "print the newline counts")
	onlyWords := opt.Bool('w', "print the word counts")
	onlyBytes := opt.Bool('c', "print the byte counts")

	return cmd.Run(virtOS, func() int {
		show := func(c wcCounts, name string) {
			all := !*onlyLines && !*onlyWords && !*onlyBytes
			var cols []interface{}
			if all || *onlyLines {
				cols = append(cols, c.lines)
			}
			if all || *onlyWords {
				cols = append(cols, c.words)
			}
			if all || *onlyBytes {
				cols = append(cols, c.bytes)
			}
			for i, col := range cols {
				if i > 0 {
					fmt.Fprint(virtOS.Stdout(), " ")
				}
				fmt.Fprintf(virtOS.Stdout(), "%7d", col)
			}
			if name != "" {
				fmt.Fprintf(virtOS.Stdout(), " %s", name)
			}
			fmt.Fprintln(virtOS.Stdout())
		}

		files := opt.Args()
		if len(files) == 0 {
			show(countReader(virtOS.Stdin()), "")
			return 0
		}

		exitCode := 0
		var total wcCounts
		for _, name := range files {
			fd, err := virtOS.Open(name)
			if err != nil {
				fmt.Fprintf(virtOS.Stderr(), "wc: %s: no such file or directory\n", name)
				exitCode = 1
				continue
			}
			c := countReader(fd)
			fd.Close()
			show(c, name)
			total.lines += c.lines
			total.words += c.words
			total.bytes += c.bytes
		}
		if len(files) > 1 {
			show(total, "total")
		}
		return exitCode
	})
}

var _ vos.ProcessFunc = Wc

func init() {
	registerCommand(Wc, "wc")
}
