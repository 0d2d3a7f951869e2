// Package interactive drives commands that prompt for input.
//
// A ResponseProvider maps output tokens to responses. A Conversation answers
// prompts by writing replies to the command's stdin, and a Trigger runs a
// callback whenever a matching token appears on stdout.
//
//	script := interactive.NewOrdered[string]().
//		Exact("Username: ", "admin\n").
//		Regex(`Password( for \w+)?: `, "secret\n").
//		Build()
//
//	f, _ := giraffe.ExecuteAsync(sys.Command("login"), giraffe.DefaultContext())
//	err := interactive.NewConversation(f, script).Run(ctx)
package interactive
