// PQGo 命令行工具, 用于查看和管理队列数据文件
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"pqgo"
)

func main() {
	app := &cli.App{
		Name:  "pqgo",
		Usage: "inspect and manage pqgo queue files",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "dir",
				Usage: "queue data directory",
				Value: pqgo.DefaultOptions.DirPath,
			},
			&cli.StringFlag{
				Name:  "name",
				Usage: "queue name",
				Value: pqgo.DefaultOptions.Name,
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "stats",
				Usage: "show queue statistics",
				Action: func(c *cli.Context) error {
					return withQueue(c, func(q *pqgo.Queue) error {
						stat := q.Stat()
						out, err := json.MarshalIndent(stat, "", "  ")
						if err != nil {
							return err
						}
						fmt.Println(string(out))
						return nil
					})
				},
			},
			{
				Name:  "peek",
				Usage: "peek at the next items without consuming them",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "n", Usage: "number of items", Value: 1},
				},
				Action: func(c *cli.Context) error {
					return withQueue(c, func(q *pqgo.Queue) error {
						items, err := q.Peek(c.Int("n"))
						if err != nil {
							return err
						}
						for _, item := range items {
							fmt.Printf("%v\n", item)
						}
						return nil
					})
				},
			},
			{
				Name:  "push",
				Usage: "push a string item onto the queue",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return fmt.Errorf("push expects exactly one argument")
					}
					return withQueue(c, func(q *pqgo.Queue) error {
						return q.Push(c.Args().First())
					})
				},
			},
			{
				Name:  "pop",
				Usage: "pop the next item off the queue",
				Action: func(c *cli.Context) error {
					return withQueue(c, func(q *pqgo.Queue) error {
						item, err := q.Pop()
						if err != nil {
							return err
						}
						fmt.Printf("%v\n", item)
						return nil
					})
				},
			},
			{
				Name:  "compact",
				Usage: "reclaim dead space in the queue file",
				Action: func(c *cli.Context) error {
					return withQueue(c, func(q *pqgo.Queue) error {
						return q.Flush()
					})
				},
			},
			{
				Name:  "clear",
				Usage: "remove all items from the queue",
				Action: func(c *cli.Context) error {
					return withQueue(c, func(q *pqgo.Queue) error {
						return q.Clear()
					})
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logrus.Fatal(err)
	}
}

// withQueue 打开队列执行 fn, 结束后关闭
func withQueue(c *cli.Context, fn func(q *pqgo.Queue) error) error {
	options := pqgo.DefaultOptions
	options.DirPath = c.String("dir")
	options.Name = c.String("name")
	q, err := pqgo.Open(options)
	if err != nil {
		return err
	}
	defer func() {
		_ = q.Close()
	}()
	return fn(q)
}
