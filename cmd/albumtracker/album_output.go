package main

import (
	"fmt"
	"io"
	"strconv"

	"albumtracker/internal/api"
)

func renderAlbumTable(albums []api.Album) string {
	rows := make([][]string, 0, len(albums))
	for _, album := range albums {
		buyer := album.Buyer
		if buyer == "" {
			buyer = "-"
		}
		rows = append(rows, []string{
			strconv.FormatInt(album.ID, 10),
			album.Title,
			strconv.FormatInt(album.Price, 10),
			titleCase(album.State),
			album.CustodyAddress,
			buyer,
		})
	}
	return renderTable(
		[]string{"ID", "Title", "Price", "State", "Custody", "Buyer"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignLeft, alignLeft},
	)
}

func printAlbumDetail(out io.Writer, album api.Album, colorize bool) {
	fmt.Fprintf(out, "Album #%d\n", album.ID)
	printField(out, "Title", album.Title)
	printField(out, "Price", strconv.FormatInt(album.Price, 10))
	printField(out, "State", paint(titleCase(album.State), stateColor(album.State), colorize))
	printField(out, "Custody", album.CustodyAddress)
	if album.Buyer != "" {
		printField(out, "Buyer", album.Buyer)
		printField(out, "Paid", strconv.FormatInt(album.PaidAmount, 10))
	}
	printField(out, "Created", album.CreatedAt)
	if album.PaidAt != "" {
		printField(out, "Paid at", album.PaidAt)
	}
	if album.DeliveredAt != "" {
		printField(out, "Delivered at", album.DeliveredAt)
	}
}

func printField(out io.Writer, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(out, "%s%-*s %s\n", statusIndent, statusLabelWidth, label+":", value)
}

func formatChange(change api.StateChange, colorize bool) string {
	line := fmt.Sprintf("#%-5d album %-4d %-9s", change.Sequence, change.ItemID, change.State)
	line = paint(line, stateColor(change.State), colorize)
	if change.Title != "" {
		line += fmt.Sprintf(" %q", change.Title)
	}
	if change.Account != "" {
		line += " account=" + change.Account
	}
	if change.Amount != 0 {
		line += " amount=" + strconv.FormatInt(change.Amount, 10)
	}
	if change.At != "" {
		line += " at=" + change.At
	}
	return line
}
