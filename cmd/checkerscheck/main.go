package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/park285/Cheese-Checkers/pkg/checkersdto"
	"github.com/valyala/fasthttp"
)

func main() {
	baseURL := strings.TrimRight(os.Getenv("CHECKERS_BASE_URL"), "/")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	client := &fasthttp.Client{ReadTimeout: 5 * time.Second, WriteTimeout: 5 * time.Second}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var state checkersdto.StateView
	if err := post(ctx, client, baseURL+"/games", nil, &state); err != nil {
		log.Fatalf("create error: %v", err)
	}
	log.Printf("created game=%s black=%d orange=%d", state.GameID, len(state.BlackPieces), len(state.OrangePieces))

	pieceID := 5
	if err := post(ctx, client, baseURL+"/games/"+state.GameID+"/select", checkersdto.SelectRequest{PieceID: &pieceID}, &state); err != nil {
		log.Fatalf("select error: %v", err)
	}
	log.Printf("selected piece=%d valid_moves=%v", pieceID, state.ValidMoves)

	row, col := 2, 1
	if err := post(ctx, client, baseURL+"/games/"+state.GameID+"/move", checkersdto.MoveRequest{Row: &row, Col: &col}, &state); err != nil {
		log.Fatalf("move error: %v", err)
	}

	out, _ := json.MarshalIndent(state, "", "  ")
	fmt.Println(string(out))
}

func post(ctx context.Context, client *fasthttp.Client, url string, in, out any) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()
	req.Header.SetMethod(fasthttp.MethodPost)
	req.SetRequestURI(url)
	req.Header.SetContentType("application/json")
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		req.SetBody(b)
	}
	deadline := time.Now().Add(5 * time.Second)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	if err := client.DoDeadline(req, resp, deadline); err != nil {
		return err
	}
	if sc := resp.StatusCode(); sc < 200 || sc >= 300 {
		var de checkersdto.DomainError
		if json.Unmarshal(resp.Body(), &de) == nil && de.Code != "" {
			return fmt.Errorf("status=%d code=%s: %s", sc, de.Code, de.Message)
		}
		return fmt.Errorf("status=%d body=%s", sc, resp.Body())
	}
	return json.Unmarshal(resp.Body(), out)
}
