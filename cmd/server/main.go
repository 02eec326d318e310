package main

import (
	"github.com/vantran/workchat/internal/server"
)

func main() {
	srv := server.NewServer()
	srv.Run()
}
