package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/hijjiri/tasklist/internal/client"
)

func main() {
	addr := flag.String("addr", "http://localhost:3001", "tasklist HTTP base URL")
	mode := flag.String("mode", "list", "mode: list | get | create | update | delete | health")
	id := flag.Int64("id", 0, "id for get / update / delete")
	title := flag.String("title", "", "title for create / update")
	completed := flag.Bool("completed", false, "completed flag for create / update")
	flag.Parse()

	// update では指定されたフラグだけ送る
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	c := client.New(*addr)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	switch *mode {
	case "list":
		tasks, err := c.List(ctx)
		if err != nil {
			fail("List", err)
		}
		if len(tasks) == 0 {
			fmt.Println("no tasks")
			return
		}
		fmt.Printf("tasks (%d):\n", len(tasks))
		for _, t := range tasks {
			printTask("-", &t)
		}

	case "get":
		requireID(*id, "get")
		t, err := c.Get(ctx, *id)
		if err != nil {
			fail("Get", err)
		}
		printTask("task:", t)

	case "create":
		if *title == "" {
			log.Fatal("title is required for create")
		}
		t, err := c.Create(ctx, *title, *completed)
		if err != nil {
			fail("Create", err)
		}
		printTask("created:", t)

	case "update":
		requireID(*id, "update")
		var in client.UpdateInput
		if set["title"] {
			in.Title = title
		}
		if set["completed"] {
			in.Completed = completed
		}
		t, err := c.Update(ctx, *id, in)
		if err != nil {
			fail("Update", err)
		}
		printTask("updated:", t)

	case "delete":
		requireID(*id, "delete")
		t, err := c.Delete(ctx, *id)
		if err != nil {
			fail("Delete", err)
		}
		printTask("deleted:", t)

	case "health":
		h, err := c.Health(ctx)
		if err != nil {
			fail("Health", err)
		}
		fmt.Printf("status=%s timestamp=%s uptime=%.1fs\n", h.Status, h.Timestamp, h.Uptime)

	default:
		log.Fatalf("unknown mode: %s", *mode)
	}
}

func requireID(id int64, mode string) {
	if id == 0 {
		log.Fatalf("id is required for %s", mode)
	}
}

func printTask(prefix string, t *client.Task) {
	fmt.Printf("%s id=%d title=%s completed=%v\n", prefix, t.ID, t.Title, t.Completed)
}

// fail はサーバのエラーと接続エラーを分けて表示する。
func fail(op string, err error) {
	var apiErr *client.APIError
	switch {
	case errors.As(err, &apiErr):
		log.Fatalf("%s failed: %s (status %d)", op, apiErr.Message, apiErr.StatusCode)
	case errors.Is(err, client.ErrConnectionFailure):
		log.Fatalf("%s failed: could not reach server: %v", op, err)
	default:
		log.Fatalf("%s failed: %v", op, err)
	}
}
