package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"gembrowse/internal/store"
)

const defaultJournalLines = 50

type JournalCommand struct {
	stdout      io.Writer
	stderr      io.Writer
	openJournal journalOpener
}

func NewJournalCommand(stdout, stderr io.Writer, openJournal journalOpener) *JournalCommand {
	return &JournalCommand{
		stdout:      stdout,
		stderr:      stderr,
		openJournal: openJournal,
	}
}

func (c *JournalCommand) Run(args []string) (err error) {
	fs := flag.NewFlagSet("journal", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	limit := fs.Int("limit", defaultJournalLines, "number of records to print")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be positive")
	}

	journal, err := c.openJournal()
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := journal.Close(); err == nil {
			err = closeErr
		}
	}()
	records, err := journal.Recent(context.Background(), *limit)
	if err != nil {
		return err
	}
	printJournal(c.stdout, records)
	return nil
}

func printJournal(output io.Writer, records []*store.CallRecord) {
	writer := tabwriter.NewWriter(output, 0, 8, 2, ' ', 0)
	fmt.Fprintln(writer, "SEQ\tTIME\tKIND\tLABEL\tBYTES\tERROR")
	for _, record := range records {
		errNumber := "-"
		if record.ErrorNumber != 0 {
			errNumber = fmt.Sprintf("%d", record.ErrorNumber)
		}
		fmt.Fprintf(writer, "%d\t%s\t%s\t%s\t%d\t%s\n",
			record.Seq,
			record.Time.Local().Format(time.DateTime),
			record.Kind,
			record.Label,
			record.BodyBytes,
			errNumber,
		)
	}
	_ = writer.Flush()
}
