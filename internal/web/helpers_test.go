package web

import (
	"strconv"
	"time"
)

const timeout = 2 * time.Second

func itoa(n int) string { return strconv.Itoa(n) }
