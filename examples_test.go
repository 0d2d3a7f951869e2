package giraffe_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/palantir/giraffe-sub000"
	"github.com/palantir/giraffe-sub000/providers/local"
	"github.com/palantir/giraffe-sub000/providers/mock"
	"github.com/rs/zerolog"
)

func Example() {
	sys, err := local.New()
	if err != nil {
		panic(err)
	}

	defer func() { _ = sys.Close() }()

	res, err := giraffe.Execute(sys.Command("echo", "hello", "world"), giraffe.DefaultContext())
	if err != nil {
		panic(err)
	}

	fmt.Print(res.Stdout)
	// Output: hello world
}

func ExampleNewContextBuilder() {
	sys, err := local.New()
	if err != nil {
		panic(err)
	}

	defer func() { _ = sys.Close() }()

	cctx := giraffe.NewContextBuilder().
		Environment(giraffe.DefaultEnvironment().Set("GREETING", "hi")).
		RequireExitStatus(3).
		Build()

	res, err := giraffe.Execute(giraffe.ShellCommand(sys, "echo $GREETING; exit 3"), cctx)
	if err != nil {
		panic(err)
	}

	fmt.Printf("%d %s", res.ExitStatus, res.Stdout)
	// Output: 3 hi
}

func ExampleExecuteTimeout() {
	sys, err := local.New()
	if err != nil {
		panic(err)
	}

	defer func() { _ = sys.Close() }()

	_, err = giraffe.ExecuteTimeout(giraffe.ShellCommand(sys, "echo started; sleep 10"), giraffe.DefaultContext(), 500*time.Millisecond)

	var timeoutErr *giraffe.TimeoutError
	if errors.As(err, &timeoutErr) {
		fmt.Print("partial output: ", timeoutErr.Result.Stdout)
	}
	// Output: partial output: started
}

func ExampleFuture_Stdin() {
	sys, err := local.New()
	if err != nil {
		panic(err)
	}

	defer func() { _ = sys.Close() }()

	f, err := giraffe.ExecuteAsync(sys.Command("tr", "a-z", "A-Z"), giraffe.DefaultContext())
	if err != nil {
		panic(err)
	}

	_, _ = io.WriteString(f.Stdin(), "shout\n")
	_ = f.Stdin().Close()

	res, err := giraffe.WaitFor(f)
	if err != nil {
		panic(err)
	}

	fmt.Print(res.Stdout)
	// Output: SHOUT
}

func ExampleCommandError() {
	sys, err := local.New()
	if err != nil {
		panic(err)
	}

	defer func() { _ = sys.Close() }()

	_, err = giraffe.Execute(giraffe.ShellCommand(sys, "exit 2"), giraffe.DefaultContext())

	var cmdErr *giraffe.CommandError
	if errors.As(err, &cmdErr) {
		fmt.Println(cmdErr.ExitStatus())
	}
	// Output: 2
}

// A backend supplies a StartFunc and lets a Pool drive the execution.
func ExamplePool() {
	proc := mock.NewProcess().WithOutput("from the backend\n", "")
	proc.On("Wait").Return(0, nil)
	proc.On("CloseStreams").Return(nil)

	sys := mock.New()
	pool := giraffe.NewPool(zerolog.Nop())

	defer func() { _ = pool.Close() }()

	f, err := pool.Submit(sys.Command("anything"), nil, mock.StartFunc(proc))
	if err != nil {
		panic(err)
	}

	res, err := f.Get(context.Background())
	if err != nil {
		panic(err)
	}

	fmt.Print(strings.ToUpper(res.Stdout))
	// Output: FROM THE BACKEND
}
