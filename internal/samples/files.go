// Copyright (c) Microsoft. All rights reserved.

package samples

import (
	"context"

	"github.com/azure-ai-foundry/foundry-samples/go/agents"
)

func init() {
	register(Sample{
		Name:        "file-search",
		Description: "Index an uploaded product sheet in a vector store and search it.",
		Requires:    requires(),
		Run:         runFileSearch,
	})
	register(Sample{
		Name:        "code-interpreter",
		Description: "Analyse an uploaded CSV file with the code interpreter.",
		Requires:    requires(),
		Run:         runCodeInterpreter,
	})
	register(Sample{
		Name:        "image-url-input",
		Description: "Send a message that combines text with an image URL.",
		Requires:    requires(),
		Run:         runImageURLInput,
	})
	register(Sample{
		Name:        "image-file-input",
		Description: "Send a message that combines text with an uploaded image.",
		Requires:    requires(),
		Run:         runImageFileInput,
	})
	register(Sample{
		Name:        "message-attachment",
		Description: "Attach a local file to a message for file search.",
		Requires:    requires(),
		Run:         runMessageAttachment,
	})
}

// upload sends an embedded asset and schedules its deletion.
func (e *Env) upload(ctx context.Context, name string, purpose agents.FilePurpose) (*agents.FileInfo, func(), error) {
	r, err := assetReader(name)
	if err != nil {
		return nil, func() {}, err
	}
	f, err := e.Agents.UploadFileAndPoll(ctx, name, r, purpose, e.PollInterval)
	if err != nil {
		return nil, func() {}, err
	}
	e.printf("Uploaded file, file ID: %s", f.ID)
	return f, func() { e.teardown(ctx, "file", f.ID, e.Agents.DeleteFile) }, nil
}

func runFileSearch(ctx context.Context, env *Env) error {
	file, doneFile, err := env.upload(ctx, "product_info_1.md", agents.FilePurposeAgents)
	if err != nil {
		return err
	}
	defer doneFile()

	vs, err := env.Agents.CreateVectorStoreAndPoll(ctx, agents.CreateVectorStoreParams{
		Name:    "my_vectorstore",
		FileIDs: []string{file.ID},
	}, env.PollInterval)
	if err != nil {
		return err
	}
	env.printf("Created vector store, vector store ID: %s", vs.ID)
	defer env.teardown(ctx, "vector store", vs.ID, env.Agents.DeleteVectorStore)

	tools := agents.NewToolSet().AddFileSearch(vs.ID)
	return askWithTools(ctx, env, "my-agent",
		"You are a helpful assistant and can search information from uploaded files", tools,
		"Hello, what Contoso products do you know?")
}

func runCodeInterpreter(ctx context.Context, env *Env) error {
	file, doneFile, err := env.upload(ctx, "nifty_500_quarterly_results.csv", agents.FilePurposeAgents)
	if err != nil {
		return err
	}
	defer doneFile()

	tools := agents.NewToolSet().AddCodeInterpreter(file.ID)
	return askWithTools(ctx, env, "my-agent", "You are helpful agent", tools,
		"Could you please create bar chart in TRANSPORTATION sector for the operating profit from the uploaded csv file and provide file to me?")
}

func runImageURLInput(ctx context.Context, env *Env) error {
	agent, done, err := env.createAgent(ctx, "image-understanding-agent",
		"You are a helpful agent that can analyze images.", nil)
	if err != nil {
		return err
	}
	defer done()

	_, err = env.ask(ctx, agent, agents.CreateMessageParams{Blocks: []agents.MessageInputBlock{
		agents.TextBlock("What is the main color of this image?"),
		agents.ImageURLBlock("https://upload.wikimedia.org/wikipedia/commons/thumb/d/dd/Gfp-wisconsin-madison-the-nature-boardwalk.jpg/2560px-Gfp-wisconsin-madison-the-nature-boardwalk.jpg"),
	}}, nil)
	return err
}

func runImageFileInput(ctx context.Context, env *Env) error {
	image, doneImage, err := env.upload(ctx, "image_file.png", agents.FilePurposeVision)
	if err != nil {
		return err
	}
	defer doneImage()

	agent, done, err := env.createAgent(ctx, "image-understanding-agent",
		"You are a helpful agent that can analyze images.", nil)
	if err != nil {
		return err
	}
	defer done()

	_, err = env.ask(ctx, agent, agents.CreateMessageParams{Blocks: []agents.MessageInputBlock{
		agents.TextBlock("Hello, what is in the image?"),
		agents.ImageFileBlock(image.ID),
	}}, nil)
	return err
}

func runMessageAttachment(ctx context.Context, env *Env) error {
	file, doneFile, err := env.upload(ctx, "product_info_1.md", agents.FilePurposeAgents)
	if err != nil {
		return err
	}
	defer doneFile()

	tools := agents.NewToolSet().AddFileSearch()
	agent, done, err := env.createAgent(ctx, "my-agent", "You are helpful agent", tools)
	if err != nil {
		return err
	}
	defer done()

	_, err = env.ask(ctx, agent, agents.CreateMessageParams{
		Content: "What feature does Smart Eyewear offer?",
		Attachments: []agents.MessageAttachment{{
			FileID: file.ID,
			Tools:  []agents.ToolDefinition{{Type: agents.ToolTypeFileSearch}},
		}},
	}, nil)
	return err
}
