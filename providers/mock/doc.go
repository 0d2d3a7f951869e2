// Package mock provides testify/mock implementations of giraffe.System,
// giraffe.Process and giraffe.Provider.
//
// A mock Process can be run through a real giraffe.Pool, so code that consumes
// futures is tested against the real execution handle:
//
//	proc := mock.NewProcess().WithOutput("On branch main\n", "")
//	proc.On("Wait").Return(0, nil)
//	proc.On("CloseStreams").Return(nil)
//
//	pool := giraffe.NewPool(zerolog.Nop())
//	f, _ := pool.Submit(sys.Command("git", "status"), nil, mock.StartFunc(proc))
package mock
