package main

import (
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	fat "github.com/orb1t/fat32-lib"
)

var verbose bool

func main() {
	cmd := &cobra.Command{
		Use:   "fatinfo",
		Short: "inspect and modify FAT filesystem images",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				log.SetLevel(log.DebugLevel)
			}
		},
	}
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(infoCmd())
	cmd.AddCommand(lsCmd())
	cmd.AddCommand(catCmd())
	cmd.AddCommand(labelCmd())

	if err := cmd.Execute(); err != nil {
		log.Fatalf("%v", err)
	}
}

// openImage mounts the FAT filesystem inside an image file.
func openImage(path string, readOnly bool) (*fat.Fs, func(), error) {
	flag := os.O_RDWR
	if readOnly {
		flag = os.O_RDONLY
	}
	f, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to open image %s: %v", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("unable to stat image %s: %v", path, err)
	}

	device := fat.NewFileDisk(f, info.Size())

	var fs *fat.Fs
	if readOnly {
		fs, err = fat.NewReadOnly(device)
	} else {
		fs, err = fat.New(device)
	}
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("unable to mount image %s: %v", path, err)
	}

	return fs, func() { f.Close() }, nil
}

func infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <image>",
		Short: "print filesystem parameters of an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, closer, err := openImage(args[0], true)
			if err != nil {
				return err
			}
			defer closer()

			core := fs.Core()
			total, err := core.TotalSpace()
			if err != nil {
				return err
			}
			free, err := core.FreeSpace()
			if err != nil {
				return err
			}

			fmt.Printf("type:         %s\n", fs.FSType())
			fmt.Printf("label:        %q\n", fs.Label())
			fmt.Printf("cluster size: %d\n", core.ClusterSize())
			fmt.Printf("total space:  %d\n", total)
			fmt.Printf("free space:   %d\n", free)
			log.Debugf("boot sector: %s", core.BootSector())
			return nil
		},
	}
}

func lsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls <image> [path]",
		Short: "list a directory of an image",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/"
			if len(args) > 1 {
				path = args[1]
			}

			fs, closer, err := openImage(args[0], true)
			if err != nil {
				return err
			}
			defer closer()

			dir, err := fs.Open(path)
			if err != nil {
				return err
			}
			defer dir.Close()

			infos, err := dir.Readdir(-1)
			if err != nil {
				return err
			}
			for _, info := range infos {
				kind := "-"
				if info.IsDir() {
					kind = "d"
				}
				fmt.Printf("%s %10d %s %s\n", kind, info.Size(),
					info.ModTime().Format("2006-01-02 15:04:05"), info.Name())
			}
			return nil
		},
	}
}

func catCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cat <image> <path>",
		Short: "write a file of an image to stdout",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, closer, err := openImage(args[0], true)
			if err != nil {
				return err
			}
			defer closer()

			file, err := fs.Open(args[1])
			if err != nil {
				return err
			}
			defer file.Close()

			if _, err := io.Copy(os.Stdout, file); err != nil && err != io.EOF {
				return err
			}
			return nil
		},
	}
}

func labelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "label <image> [new-label]",
		Short: "print or change the volume label of an image",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			readOnly := len(args) < 2
			fs, closer, err := openImage(args[0], readOnly)
			if err != nil {
				return err
			}
			defer closer()

			if readOnly {
				fmt.Println(fs.Label())
				return nil
			}

			core := fs.Core()
			if err := core.SetLabel(args[1]); err != nil {
				return err
			}
			if err := core.Flush(); err != nil {
				return err
			}
			log.Infof("label set to %q", args[1])
			return nil
		},
	}
}
