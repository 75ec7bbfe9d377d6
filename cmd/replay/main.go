package main

import (
	"flag"
	"fmt"
	"os"

	"voxeledit.ai/internal/config"
	persistlog "voxeledit.ai/internal/persistence/log"
)

func main() {
	var (
		journalPath = flag.String("journal", "./data/journal", "journal file or directory of journal-*.jsonl.zst")
		configPath  = flag.String("config", "./configs/editor.yaml", "editor config path (map bounds)")
		quiet       = flag.Bool("quiet", false, "print only the summary")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}

	files, err := journalFiles(*journalPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "list journal:", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no journal files at", *journalPath)
		os.Exit(2)
	}

	st := newState(cfg.MapBounds())
	for _, f := range files {
		err := persistlog.ReadJournal(f, func(e persistlog.Entry) error {
			line, err := st.apply(e)
			if err != nil {
				return err
			}
			if !*quiet {
				fmt.Println(line)
			}
			return nil
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, "replay:", err)
			os.Exit(1)
		}
	}
	fmt.Println(st.summary())
}

func journalFiles(path string) ([]string, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !fi.IsDir() {
		return []string{path}, nil
	}
	return persistlog.ListJournalFiles(path)
}
