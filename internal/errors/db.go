package errors

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// "Key (slug)=(spring-2025) already exists."
	reKeyField = regexp.MustCompile(`Key \(([^)]+)\)=`)
	// "... is still referenced from table "projects"."
	reReferencedFrom = regexp.MustCompile(`is still referenced from table "?([^"]+)"?`)
	// "... is not present in table "departments"."
	reNotPresent = regexp.MustCompile(`is not present in table "?([^"]+)"?`)
)

// tableNouns maps table names to the words shown to portal users.
var tableNouns = map[string]string{
	"users":            "user",
	"user_roles":       "user",
	"departments":      "department",
	"newsletters":      "newsletter",
	"projects":         "project",
	"contact_messages": "contact message",
}

// MapDBError maps database errors to AppError instances:
// context errors -> Timeout/Canceled, no rows -> NotFound, unique -> Conflict,
// foreign key -> ForeignKey, check and not-null -> Validation.
// Unrecognized errors are returned unchanged.
func MapDBError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return Wrap(err, ErrCodeTimeout, "Request timed out. Please try again.")
	case errors.Is(err, context.Canceled):
		return Wrap(err, ErrCodeCanceled, "Request was canceled.")
	case errors.Is(err, pgx.ErrNoRows):
		return Wrap(err, ErrCodeNotFound, "Resource not found")
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		e := Wrap(pgErr, ErrCodeConflict, "This value already exists. Please choose a different one.")
		e.Field = uniqueField(pgErr)
		return e
	case pgerrcode.ForeignKeyViolation:
		return Wrap(pgErr, ErrCodeForeignKey, foreignKeyMessage(pgErr))
	case pgerrcode.CheckViolation:
		e := Wrap(pgErr, ErrCodeValidation, "This field has an invalid value.")
		e.Field = pgErr.ColumnName
		return e
	case pgerrcode.NotNullViolation:
		e := Wrap(pgErr, ErrCodeValidation, "This field is required.")
		e.Field = pgErr.ColumnName
		return e
	default:
		return Wrap(pgErr, ErrCodeInternal, "A database error occurred. Please try again.")
	}
}

func uniqueField(pgErr *pgconn.PgError) string {
	if pgErr.ColumnName != "" {
		return pgErr.ColumnName
	}
	if m := reKeyField.FindStringSubmatch(pgErr.Detail); len(m) == 2 {
		return m[1]
	}
	return fieldFromConstraint(pgErr.ConstraintName, pgErr.TableName)
}

// fieldFromConstraint turns "newsletters_slug_key" into "slug". Multi-column
// constraints are ambiguous and yield "".
func fieldFromConstraint(constraint, table string) string {
	if constraint == "" {
		return ""
	}
	rest := constraint
	if table != "" {
		rest = strings.TrimPrefix(rest, table+"_")
	} else if i := strings.Index(rest, "_"); i >= 0 {
		rest = rest[i+1:]
	}
	for _, suffix := range []string{"_key", "_unique", "_idx"} {
		if strings.HasSuffix(rest, suffix) {
			field := strings.TrimSuffix(rest, suffix)
			if strings.Contains(field, "_") && table == "" {
				return ""
			}
			return field
		}
	}
	return ""
}

func foreignKeyMessage(pgErr *pgconn.PgError) string {
	if m := reReferencedFrom.FindStringSubmatch(pgErr.Detail); len(m) == 2 {
		return "Cannot delete because this item is in use by a " + noun(m[1]) + "."
	}
	if m := reNotPresent.FindStringSubmatch(pgErr.Detail); len(m) == 2 {
		return "The referenced " + noun(m[1]) + " does not exist."
	}
	if pgErr.TableName != "" {
		return "Cannot complete operation because this item is in use by a " + noun(pgErr.TableName) + "."
	}
	return "Cannot complete operation because this item is in use."
}

func noun(table string) string {
	table = strings.ToLower(strings.TrimSpace(table))
	if n, ok := tableNouns[table]; ok {
		return n
	}
	return strings.ReplaceAll(table, "_", " ")
}
