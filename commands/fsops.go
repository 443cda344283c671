package commands

import (
	"fmt"
	"io"
	"os"
	"path"

	"josephlewis.net/vsh/core/vos"
)

// Mkdir creates directories.
func Mkdir(virtOS vos.VOS) int {
	cmd := &SimpleCommand{
		Use:   "mkdir [-p] DIRECTORY...",
		Short: "Create the DIRECTORY(ies), if they do not already exist.",
	}
	opt := cmd.Flags()
	parents := opt.Bool('p', "make parent directories as needed")

	return cmd.Run(virtOS, func() int {
		if len(opt.Args()) == 0 {
			fmt.Fprintln(virtOS.Stderr(), "mkdir: missing operand")
			return 1
		}
		exitCode := 0
		for _, dir := range opt.Args() {
			var err error
			if *parents {
				err = virtOS.MkdirAll(dir, 0755)
			} else {
				// The in-memory filesystem creates missing parents on
				// Mkdir, so check for one explicitly.
				parent, statErr := virtOS.Stat(path.Dir(dir))
				switch {
				case statErr != nil || !parent.IsDir():
					err = os.ErrNotExist
				default:
					err = virtOS.Mkdir(dir, 0755)
				}
			}
			if err != nil {
				fmt.Fprintf(virtOS.Stderr(), "mkdir: cannot create directory %q\n", dir)
				exitCode = 1
			}
		}
		return exitCode
	})
}

// Touch creates files or updates their timestamps.
func Touch(virtOS vos.VOS) int {
	cmd := &SimpleCommand{
		Use:   "touch FILE...",
		Short: "Update file timestamps, creating missing files.",
	}
	opt := cmd.Flags()

	return cmd.Run(virtOS, func() int {
		if len(opt.Args()) == 0 {
			fmt.Fprintln(virtOS.Stderr(), "touch: missing file operand")
			return 1
		}
		exitCode := 0
		now := virtOS.Now()
		for _, name := range opt.Args() {
			if _, err := virtOS.Stat(name); err == nil {
				if err := virtOS.Chtimes(name, now, now); err != nil {
					exitCode = 1
				}
				continue
			}
			fd, err := virtOS.Create(name)
			if err != nil {
				fmt.Fprintf(virtOS.Stderr(), "touch: cannot touch %q\n", name)
				exitCode = 1
				continue
			}
			fd.Close()
		}
		return exitCode
	})
}

// Rm removes files and, with -r, directories.
func Rm(virtOS vos.VOS) int {
	cmd := &SimpleCommand{
		Use:   "rm [-rf] FILE...",
		Short: "Remove files or directories.",
	}
	opt := cmd.Flags()
	recursive := opt.Bool('r', "remove directories and their contents recursively")
	force := opt.Bool('f', "ignore nonexistent files, never prompt")

	return cmd.Run(virtOS, func() int {
		if len(opt.Args()) == 0 {
			fmt.Fprintln(virtOS.Stderr(), "rm: missing operand")
			return 1
		}
		exitCode := 0
		for _, name := range opt.Args() {
			info, err := virtOS.Stat(name)
			if err != nil {
				if !*force {
					fmt.Fprintf(virtOS.Stderr(), "rm: cannot remove %q: no such file or directory\n", name)
					exitCode = 1
				}
				continue
			}
			if info.IsDir() && !*recursive {
				fmt.Fprintf(virtOS.Stderr(), "rm: cannot remove %q: is a directory\n", name)
				exitCode = 1
				continue
			}
			if info.IsDir() {
				err = virtOS.RemoveAll(name)
			} else {
				err = virtOS.Remove(name)
			}
			if err != nil && !*force {
				fmt.Fprintf(virtOS.Stderr(), "rm: cannot remove %q\n", name)
				exitCode = 1
			}
		}
		return exitCode
	})
}

// Cp copies a file.
func Cp(virtOS vos.VOS) int {
	cmd := &SimpleCommand{
		Use:   "cp SOURCE DEST",
		Short: "Copy SOURCE to DEST.",
	}
	opt := cmd.Flags()

	return cmd.Run(virtOS, func() int {
		args := opt.Args()
		if len(args) != 2 {
			fmt.Fprintln(virtOS.Stderr(), "cp: missing file operand")
			return 1
		}
		src, dst := args[0], args[1]

		in, err := virtOS.Open(src)
		if err != nil {
			fmt.Fprintf(virtOS.Stderr(), "cp: cannot stat %q: no such file or directory\n", src)
			return 1
		}
		defer in.Close()

		out, err := virtOS.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			fmt.Fprintf(virtOS.Stderr(), "cp: cannot create %q\n", dst)
			return 1
		}
		defer out.Close()

		if _, err := io.Copy(out, in); err != nil {
			fmt.Fprintf(virtOS.Stderr(), "cp: error writing %q\n", dst)
			return 1
		}
		return 0
	})
}

// Mv renames a file or directory.
func Mv(virtOS vos.VOS) int {
	cmd := &SimpleCommand{
		Use:   "mv SOURCE DEST",
		Short: "Rename SOURCE to DEST.",
	}
	opt := cmd.Flags()

	return cmd.Run(virtOS, func() int {
		args := opt.Args()
		if len(args) != 2 {
			fmt.Fprintln(virtOS.Stderr(), "mv: missing file operand")
			return 1
		}
		if err := virtOS.Rename(args[0], args[1]); err != nil {
			fmt.Fprintf(virtOS.Stderr(), "mv: cannot move %q to %q\n", args[0], args[1])
			return 1
		}
		return 0
	})
}

var _ vos.ProcessFunc = Mkdir
var _ vos.ProcessFunc = Touch
var _ vos.ProcessFunc = Rm
var _ vos.ProcessFunc = Cp
var _ vos.ProcessFunc = Mv

func init() {
	registerCommand(Mkdir, "mkdir")
	registerCommand(Touch, "touch")
	registerCommand(Rm, "rm")
	registerCommand(Cp, "cp")
	registerCommand(Mv, "mv")
}
