package log

import (
	"database/sql"
	"strconv"
	"strings"
)

// defaultQueryLimit caps an unbounded Query so a debug-server request
// that doesn't set Limit can't pull the whole logs table into memory.
const defaultQueryLimit = 1000

// Query filters a read against the log database. A nil/empty Levels,
// Sources or Requests means "don't filter on this field" rather than
// "match nothing" (pkg/debugserver consumes this trimmed down to
// level/source/request/before/limit, the filters its log view
// actually offers; Time is the "before" cutoff).
type Query struct {
	Levels   []Level
	Time     UnixMillisecond
	Sources  []string
	Requests []string
	Limit    int
}

// Query reads matching rows out of the log database, newest first.
func (l *Logger) Query(q Query) (*[]Log, error) {
	var where []string
	var args []interface{}

	if len(q.Levels) != 0 {
		where = append(where, "level "+genIN(len(q.Levels)))
		args = append(args, levelsToInterfaces(q.Levels)...)
	}
	if len(q.Sources) != 0 {
		where = append(where, "src "+genIN(len(q.Sources)))
		args = append(args, stringsToInterfaces(q.Sources)...)
	}
	if len(q.Requests) != 0 {
		where = append(where, "request "+genIN(len(q.Requests)))
		args = append(args, stringsToInterfaces(q.Requests)...)
	}
	if q.Time != 0 {
		where = append(where, "time < (?)")
		args = append(args, q.Time)
	}

	sqlStmt := "SELECT time,level,src,request,msg FROM logs"
	if len(where) != 0 {
		sqlStmt += " WHERE " + strings.Join(where, " AND ")
	}
	sqlStmt += " ORDER BY time DESC"

	limit := q.Limit
	if limit == 0 {
		limit = defaultQueryLimit
	}
	sqlStmt += " LIMIT " + strconv.Itoa(limit)

	stmt, err := l.db.Prepare(sqlStmt)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	rows, err := stmt.Query(args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return parseRows(rows)
}

func parseRows(rows *sql.Rows) (*[]Log, error) {
	var logs []Log
	for rows.Next() {
		var t UnixMillisecond
		var level uint8
		var src string
		var request string
		var msg string

		err := rows.Scan(&t, &level, &src, &request, &msg)
		if err != nil {
			return nil, err
		}

		logs = append(logs, Log{
			Time:    t,
			Level:   Level(level),
			Src:     src,
			Request: request,
			Msg:     msg,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &logs, nil
}

func genIN(n int) string {
	// Input: 1 Output: "IN (?)"
	// Input: 2 Output: "IN (?, ?)"
	output := "IN ("
	for i := 1; i <= n; i++ {
		if i != n {
			output += "?, "
		} else {
			output += "?"
		}
	}
	return output + ")"
}

func levelsToInterfaces(slice []Level) []interface{} {
	output := make([]interface{}, len(slice))
	for i, v := range slice {
		output[i] = v
	}
	return output
}

func stringsToInterfaces(slice []string) []interface{} {
	output := make([]interface{}, len(slice))
	for i, v := range slice {
		output[i] = v
	}
	return output
}
