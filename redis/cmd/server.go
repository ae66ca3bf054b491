package main

import (
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/redcon"

	"pqgo"
	pqgoredis "pqgo/redis"
)

const addr = "127.0.0.1:6380"

type PQGoServer struct {
	svc    *pqgoredis.Service
	server *redcon.Server
}

func main() {
	// 打开队列服务
	svc, err := pqgoredis.NewService(pqgo.DefaultOptions)
	if err != nil {
		panic(err)
	}

	// 初始化 PQGoServer
	pqgoServer := &PQGoServer{svc: svc}
	pqgoServer.server = redcon.NewServer(addr, pqgoServer.execClientCommand, pqgoServer.accept, pqgoServer.close)
	pqgoServer.listen()
}

func (svr *PQGoServer) listen() {
	logrus.Info("pqgo server running, ready to accept connections.")
	_ = svr.server.ListenAndServe()
}

func (svr *PQGoServer) accept(conn redcon.Conn) bool {
	return true
}

func (svr *PQGoServer) close(conn redcon.Conn, err error) {
	_ = svr.svc.Close()
}

func (svr *PQGoServer) execClientCommand(conn redcon.Conn, cmd redcon.Command) {
	command := strings.ToLower(string(cmd.Args[0]))
	switch command {
	case "qpush":
		if len(cmd.Args) != 2 {
			conn.WriteError("ERR wrong number of arguments for 'qpush' command")
			return
		}
		if err := svr.svc.Push(cmd.Args[1]); err != nil {
			conn.WriteError("ERR " + err.Error())
			return
		}
		conn.WriteString("OK")
	case "qpeek":
		n, ok := parseCount(conn, cmd)
		if !ok {
			return
		}
		values, err := svr.svc.Peek(n)
		if err == pqgo.ErrQueueEmpty {
			conn.WriteArray(0)
			return
		}
		if err != nil {
			conn.WriteError("ERR " + err.Error())
			return
		}
		conn.WriteArray(len(values))
		for _, value := range values {
			conn.WriteBulk(value)
		}
	case "qpop":
		value, err := svr.svc.Pop()
		if err == pqgo.ErrQueueEmpty {
			conn.WriteNull()
			return
		}
		if err != nil {
			conn.WriteError("ERR " + err.Error())
			return
		}
		conn.WriteBulk(value)
	case "qdel":
		n, ok := parseCount(conn, cmd)
		if !ok {
			return
		}
		if err := svr.svc.Delete(n); err != nil {
			conn.WriteError("ERR " + err.Error())
			return
		}
		conn.WriteString("OK")
	case "qlen":
		conn.WriteInt(svr.svc.Len())
	case "qflush":
		if err := svr.svc.Flush(); err != nil {
			conn.WriteError("ERR " + err.Error())
			return
		}
		conn.WriteString("OK")
	case "qclear":
		if err := svr.svc.Clear(); err != nil {
			conn.WriteError("ERR " + err.Error())
			return
		}
		conn.WriteString("OK")
	case "ping":
		conn.WriteString("PONG")
	case "quit":
		conn.WriteString("OK")
		_ = conn.Close()
	default:
		conn.WriteError("ERR unsupported command: '" + command + "'")
	}
}

// parseCount 解析命令中可选的条数参数, 缺省为 1
func parseCount(conn redcon.Conn, cmd redcon.Command) (int, bool) {
	if len(cmd.Args) < 2 {
		return 1, true
	}
	n, err := strconv.Atoi(string(cmd.Args[1]))
	if err != nil {
		conn.WriteError("ERR value is not an integer or out of range")
		return 0, false
	}
	return n, true
}
