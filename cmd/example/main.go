package main

import (
	"fmt"
	"io"
	"os"

	"github.com/aligator/kernfat"
	"github.com/spf13/afero"
)

// main is just a example main to play with kernfat.
// It fills an in memory volume, walks it and reads a file using an offset.
func main() {
	dev, err := kernfat.OpenImage(afero.NewMemMapFs(), "example.img", true)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer dev.Close()

	fat, err := kernfat.Mount(dev)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	content := ""
	for i := 0; i < 200; i++ {
		content += fmt.Sprintf("line %03d of the example file, padded to 52 bytes..\n", i)
	}

	if err := fat.MkdirAll("/docs/old", 0755); err != nil {
		fmt.Println("could not create the directories", err)
		os.Exit(1)
	}
	if err := afero.WriteFile(fat, "/docs/README.md", []byte(content), 0644); err != nil {
		fmt.Println("could not write the file", err)
		os.Exit(1)
	}

	fmt.Printf("Opened volume '%v'\n\n", fat.Name())

	afero.Walk(fat, "/", func(path string, info os.FileInfo, err error) error {
		if err != nil {
			fmt.Println(err)
			return err
		}
		fmt.Println(path, info.IsDir(), info.Size())
		return nil
	})

	file, err := fat.Open("/docs/README.md")
	if err != nil {
		fmt.Println("could not open the file", err)
		os.Exit(1)
	}

	defer file.Close()
	stat, err := file.Stat()
	if err != nil {
		fmt.Println("could not stat the file", err)
		os.Exit(1)
	}

	buffer := make([]byte, 52)
	offset, err := file.Seek(9, io.SeekStart)
	if err != nil {
		fmt.Println("could not seek", err)
		os.Exit(1)
	}

	fmt.Println(offset, err)
	offset, err = file.Seek(52*150, io.SeekCurrent)
	if err != nil {
		fmt.Println("could not seek", err)
		os.Exit(1)
	}
	fmt.Println(offset, err)

	n, err := file.Read(buffer)
	if err != nil {
		fmt.Println("could not read the file", err)
		os.Exit(1)
	}
	fmt.Println(stat.Size(), n)
	fmt.Println("\n\nContent of " + stat.Name() + " using an offset and small buffer:\n\n" + string(buffer))

	report, err := fat.Driver().Check()
	if err != nil {
		fmt.Println("could not check the volume", err)
		os.Exit(1)
	}
	fmt.Print(report)
}
