// Package monitor exposes operational endpoints for administrators.
package monitor

import (
	"bufio"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	defaultTailLines = 200
	maxTailLines     = 2000
)

// LogsHandler serves the last lines of the application log file as plain
// text. Query: lines (default 200, max 2000).
func LogsHandler(path string) gin.HandlerFunc {
	return func(c *gin.Context) {
		n := defaultTailLines
		if raw := c.Query("lines"); raw != "" {
			v, err := strconv.Atoi(raw)
			if err != nil || v <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "lines must be a positive number"})
				return
			}
			n = min(v, maxTailLines)
		}

		lines, err := tail(path, n)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Log file not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Unable to read log"})
			return
		}
		c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(strings.Join(lines, "\n")))
	}
}

// tail keeps a ring of the last n lines while scanning the file once.
func tail(path string, n int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ring := make([]string, 0, n)
	next := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if len(ring) < n {
			ring = append(ring, scanner.Text())
			continue
		}
		ring[next] = scanner.Text()
		next = (next + 1) % n
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(ring) < n {
		return ring, nil
	}
	return append(ring[next:], ring[:next]...), nil
}
