package graphql

import (
	"time"

	"github.com/graphql-go/graphql"

	"github.com/avelichko/go-taskboard/internal/models"
	"github.com/avelichko/go-taskboard/internal/pubsub"
	"github.com/avelichko/go-taskboard/internal/services"
)

// taskResponse is the wire shape of a task; the default resolver
// matches GraphQL field names against the json tags.
type taskResponse struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt"`
}

func newTaskResponse(task *models.Task) *taskResponse {
	return &taskResponse{
		ID:        task.ID,
		Title:     task.Title,
		Status:    task.Status.String(),
		CreatedAt: task.CreatedAt.Format(time.RFC3339),
	}
}

type taskEventResponse struct {
	Type string        `json:"type"`
	Task *taskResponse `json:"task"`
}

func newTaskEventResponse(event pubsub.TaskEvent) *taskEventResponse {
	response := &taskEventResponse{Type: string(event.Type)}
	if event.Task != nil {
		response.Task = newTaskResponse(event.Task)
	}
	return response
}

func newSchema(taskService services.TaskService, broker *pubsub.Broker) (graphql.Schema, error) {
	taskType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Task",
		Fields: graphql.Fields{
			"id":        &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"title":     &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"status":    &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"createdAt": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		},
	})

	taskEventType := graphql.NewObject(graphql.ObjectConfig{
		Name: "TaskEvent",
		Fields: graphql.Fields{
			"type": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"task": &graphql.Field{Type: taskType},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"tasks": &graphql.Field{
				Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(taskType))),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					tasks, err := taskService.ListTasks(p.Context)
					if err != nil {
						return nil, err
					}

					response := make([]*taskResponse, len(tasks))
					for i, task := range tasks {
						response[i] = newTaskResponse(task)
					}
					return response, nil
				},
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"createTask": &graphql.Field{
				Type: taskType,
				Args: graphql.FieldConfigArgument{
					"title": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					title, _ := p.Args["title"].(string)
					task, err := taskService.CreateTask(p.Context, title)
					if err != nil {
						return nil, err
					}
					return newTaskResponse(task), nil
				},
			},
			"setTaskStatus": &graphql.Field{
				Type: taskType,
				Args: graphql.FieldConfigArgument{
					"id":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
					"status": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id, _ := p.Args["id"].(int)
					status, _ := p.Args["status"].(string)

					task, err := taskService.SetTaskStatus(p.Context, int64(id), models.Status(status))
					if err != nil {
						return nil, err
					}
					return newTaskResponse(task), nil
				},
			},
			"removeTask": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Boolean),
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id, _ := p.Args["id"].(int)
					err := taskService.RemoveTask(p.Context, int64(id))
					if err != nil {
						return nil, err
					}
					return true, nil
				},
			},
		},
	})

	subscriptionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Subscription",
		Fields: graphql.Fields{
			"taskChanged": &graphql.Field{
				Type: graphql.NewNonNull(taskEventType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source, nil
				},
				Subscribe: func(p graphql.ResolveParams) (interface{}, error) {
					sub := broker.Subscribe()
					out := make(chan interface{})

					go func() {
						defer close(out)
						defer sub.Close()
						for {
							select {
							case <-p.Context.Done():
								return
							case event, ok := <-sub.Events():
								if !ok {
									return
								}
								select {
								case out <- newTaskEventResponse(event):
								case <-p.Context.Done():
									return
								}
							}
						}
					}()

					return out, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:        queryType,
		Mutation:     mutationType,
		Subscription: subscriptionType,
	})
}
