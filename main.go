package main

import (
	"log"
	"math/rand"
	"net/http"
	"os"
	"time"

	"github.com/cardtable/threethirteen/room"
	"github.com/cardtable/threethirteen/wsserver"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	coord := room.NewCoordinator(rng)
	srv := wsserver.New(coord)

	log.Printf("three-thirteen listening on :%s", port)
	if err := http.ListenAndServe(":"+port, srv); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
