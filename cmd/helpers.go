package cmd

import (
	"context"
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"appreview/internal/bootstrap"
	"appreview/internal/errs"
)

func resolveBody(cmd *cobra.Command, required bool) (string, error) {
	inlineBody, _ := cmd.Flags().GetString("body")
	bodyFile, _ := cmd.Flags().GetString("body-file")

	if strings.TrimSpace(inlineBody) != "" && strings.TrimSpace(bodyFile) != "" {
		return "", errors.New("body and body-file are mutually exclusive")
	}

	if strings.TrimSpace(bodyFile) != "" {
		raw, err := os.ReadFile(bodyFile)
		if err != nil {
			return "", errs.Wrapf(err, "read body file %q", bodyFile)
		}
		inlineBody = string(raw)
	}

	if required && strings.TrimSpace(inlineBody) == "" {
		return "", errors.New("body is required (set --body or --body-file)")
	}
	return inlineBody, nil
}

// resolveUserID maps a username flag to a user id.
func resolveUserID(ctx context.Context, svc *bootstrap.Services, username string) (uint64, error) {
	user, err := svc.Directory.Lookup(ctx, username)
	if err != nil {
		return 0, errs.Wrapf(err, "resolve user %q", username)
	}
	return user.ID, nil
}

// resolveEntryID accepts a numeric id or an exact entry name.
func resolveEntryID(ctx context.Context, svc *bootstrap.Services, raw string) (uint64, error) {
	raw = strings.TrimSpace(raw)
	if id, err := strconv.ParseUint(raw, 10, 64); err == nil && id > 0 {
		return id, nil
	}
	entry, err := svc.Catalog.FindEntry(ctx, raw)
	if err != nil {
		return 0, errs.Wrapf(err, "resolve entry %q", raw)
	}
	return entry.ID, nil
}

func stars(rating int) string {
	if rating < 0 {
		rating = 0
	}
	if rating > 5 {
		rating = 5
	}
	return strings.Repeat("*", rating) + strings.Repeat(".", 5-rating)
}

func formatOptionalFloat(value *float64) string {
	if value == nil {
		return "-"
	}
	return strconv.FormatFloat(*value, 'f', 2, 64)
}
